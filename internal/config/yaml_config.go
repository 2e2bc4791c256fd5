package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// findProjectConfigYaml walks up from the working directory looking for
// .pm/config.yaml.
func findProjectConfigYaml() string {
	dir := findProjectDir()
	if dir == "" {
		return ""
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// ProjectConfigPath returns the config.yaml of the nearest .pm directory,
// or .pm/config.yaml under the working directory when there is none.
func ProjectConfigPath() (string, error) {
	if dir := findProjectDir(); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, ProjectDir, "config.yaml"), nil
}

// SetYamlConfig writes key=value into the project config.yaml, creating
// the file and any nested mappings as needed. Dotted keys address nested
// mappings ("history.tags" sets tags under history). Comments and the
// order of existing keys are kept.
func SetYamlConfig(key, value string) error {
	path, err := ProjectConfigPath()
	if err != nil {
		return err
	}
	if err := setYamlKeyInFile(path, key, value); err != nil {
		return err
	}
	if v != nil {
		v.Set(key, value)
	}
	return nil
}

// GetYamlConfig reads key from the project config.yaml. The second result
// is false when the file or the key is absent.
func GetYamlConfig(key string) (string, bool, error) {
	path := findProjectConfigYaml()
	if path == "" {
		return "", false, nil
	}
	doc, err := readYamlDocument(path)
	if err != nil {
		return "", false, err
	}
	node := lookupNode(doc, strings.Split(key, "."))
	if node == nil || node.Kind != yaml.ScalarNode {
		return "", false, nil
	}
	return node.Value, true, nil
}

// InitProjectConfig creates dir/.pm/config.yaml with the given settings
// if it does not exist yet. It returns the config path.
func InitProjectConfig(dir string, settings map[string]string) (string, error) {
	pmDir := filepath.Join(dir, ProjectDir)
	if err := os.MkdirAll(pmDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", pmDir, err)
	}
	path := filepath.Join(pmDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := setYamlKeyInFile(path, k, settings[k]); err != nil {
			return "", err
		}
	}
	if len(keys) == 0 {
		if err := os.WriteFile(path, []byte("# pm configuration\n"), 0o600); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return path, nil
}

func readYamlDocument(path string) (*yaml.Node, error) {
	// #nosec G304 -- path is the discovered project config
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level is not a mapping", path)
	}
	return &doc, nil
}

func setYamlKeyInFile(path, key, value string) error {
	doc, err := readYamlDocument(path)
	if err != nil {
		return err
	}
	if err := setNode(doc.Content[0], strings.Split(key, "."), value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func lookupNode(doc *yaml.Node, path []string) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	for _, part := range path {
		if node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == part {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}

func setNode(mapping *yaml.Node, path []string, value string) error {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != path[0] {
			continue
		}
		child := mapping.Content[i+1]
		if len(path) == 1 {
			*child = yaml.Node{Kind: yaml.ScalarNode, Value: value, LineComment: child.LineComment}
			return nil
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", path[0])
		}
		return setNode(child, path[1:], value)
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: path[0]}
	if len(path) == 1 {
		mapping.Content = append(mapping.Content, keyNode, &yaml.Node{Kind: yaml.ScalarNode, Value: value})
		return nil
	}
	child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	mapping.Content = append(mapping.Content, keyNode, child)
	return setNode(child, path[1:], value)
}
