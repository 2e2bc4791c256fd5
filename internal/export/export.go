// Package export serializes issues, comments and history as JSON, YAML or
// TOML.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists the accepted formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat accepts a format name case-insensitively. "yml" is an alias
// for yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: text, json, yaml, toml)", s)
}

// IsStructured reports whether f is one of the machine-readable formats.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatYAML || f == FormatTOML
}

// itemsKey wraps top-level lists for TOML, which requires a table at the
// document root.
const itemsKey = "items"

// Encode writes v to w in format f. FormatText is not handled here.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if isList(v) {
			v = map[string]any{itemsKey: v}
		}
		if err := toml.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("failed to encode toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("format %q has no encoder", f)
	}
}

func isList(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
}

// WriteFile encodes v and atomically replaces path with the result.
func WriteFile(path string, f Format, v any) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f, v); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// Close before rename (required on Windows)
	_ = tempFile.Close()

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return nil
}
