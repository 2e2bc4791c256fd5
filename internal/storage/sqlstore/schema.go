package sqlstore

// Timestamps are stored as Unix seconds. Databases written by the earlier
// pm tool hold the same values in TEXT columns; database/sql converts them
// on scan, so both layouts are read the same way.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS issues (
		issue_id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT 'untitled issue',
		description TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		closed INTEGER NOT NULL DEFAULT 0,
		closed_time INTEGER,
		assigned_to TEXT,
		created_by TEXT NOT NULL,
		created_time INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS issue_history (
		issue_id INTEGER NOT NULL REFERENCES issues(issue_id),
		username TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		field TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		issue_id INTEGER NOT NULL REFERENCES issues(issue_id),
		tag TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		issue_id INTEGER NOT NULL REFERENCES issues(issue_id),
		created_time INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		comment_text TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS checked_out (
		username TEXT NOT NULL,
		issue_id INTEGER NOT NULL REFERENCES issues(issue_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_assigned_to ON issues(assigned_to)`,
	`CREATE INDEX IF NOT EXISTS idx_history_issue ON issue_history(issue_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_issue ON comments(issue_id)`,
}

// mysqlSchema mirrors sqliteSchema. History and comment rows carry an
// explicit AUTO_INCREMENT id since MySQL has no rowid.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS issues (
		issue_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(500) NOT NULL DEFAULT 'untitled issue',
		description TEXT,
		status VARCHAR(32) NOT NULL DEFAULT 'open',
		closed TINYINT(1) NOT NULL DEFAULT 0,
		closed_time BIGINT NULL,
		assigned_to VARCHAR(255) NULL,
		created_by VARCHAR(255) NOT NULL,
		created_time BIGINT NOT NULL,
		INDEX idx_issues_status (status),
		INDEX idx_issues_assigned_to (assigned_to)
	)`,
	`CREATE TABLE IF NOT EXISTS issue_history (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		issue_id BIGINT NOT NULL,
		username VARCHAR(255) NOT NULL,
		timestamp BIGINT NOT NULL,
		field VARCHAR(64) NOT NULL,
		old_value TEXT,
		new_value TEXT,
		INDEX idx_history_issue (issue_id),
		FOREIGN KEY (issue_id) REFERENCES issues(issue_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		issue_id BIGINT NOT NULL,
		tag VARCHAR(255) NOT NULL,
		UNIQUE KEY idx_tags_issue_tag (issue_id, tag),
		FOREIGN KEY (issue_id) REFERENCES issues(issue_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		issue_id BIGINT NOT NULL,
		created_time BIGINT NOT NULL,
		created_by VARCHAR(255) NOT NULL,
		comment_text TEXT NOT NULL,
		INDEX idx_comments_issue (issue_id),
		FOREIGN KEY (issue_id) REFERENCES issues(issue_id)
	)`,
	`CREATE TABLE IF NOT EXISTS checked_out (
		username VARCHAR(255) NOT NULL,
		issue_id BIGINT NOT NULL,
		UNIQUE KEY idx_checked_out_username (username),
		FOREIGN KEY (issue_id) REFERENCES issues(issue_id)
	)`,
}
