package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/nootmuskaat/pm/internal/storage"
	"github.com/nootmuskaat/pm/internal/types"
)

// TagDiff is the minimal change turning one tag set into another.
type TagDiff struct {
	Add    []string
	Remove []string
}

// Empty reports whether the diff changes nothing.
func (d TagDiff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// DiffTags computes which tags to add and remove to turn oldTags into
// newTags. Both results are sorted.
func DiffTags(oldTags, newTags []string) TagDiff {
	oldSet := make(map[string]bool, len(oldTags))
	for _, t := range oldTags {
		oldSet[t] = true
	}
	newSet := make(map[string]bool, len(newTags))
	for _, t := range newTags {
		newSet[t] = true
	}

	var d TagDiff
	for t := range newSet {
		if !oldSet[t] {
			d.Add = append(d.Add, t)
		}
	}
	for t := range oldSet {
		if !newSet[t] {
			d.Remove = append(d.Remove, t)
		}
	}
	sort.Strings(d.Add)
	sort.Strings(d.Remove)
	return d
}

// normalizeTags trims tags, drops empty ones, de-duplicates and sorts.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// reconcileTags applies d to the issue's tag set.
func reconcileTags(ctx context.Context, tx storage.Transaction, issueID int64, d TagDiff) error {
	for _, t := range d.Add {
		if err := tx.AddTag(ctx, issueID, t); err != nil {
			return err
		}
	}
	for _, t := range d.Remove {
		if err := tx.RemoveTag(ctx, issueID, t); err != nil {
			return err
		}
	}
	return nil
}

func joinTags(tags []string) *string {
	return types.StringPtr(strings.Join(tags, ","))
}
