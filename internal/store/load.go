package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/michaelgrohs/ccviz/internal/common"
)

// Format identifies the encoding of a dataset bundle file.
type Format string

// Supported bundle formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the bundle format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, path)
	}
}

// Decode reads a bundle in the given format.
func Decode(r io.Reader, format Format) (Bundle, error) {
	var b Bundle
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return Bundle{}, fmt.Errorf("failed to decode JSON bundle: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&b); err != nil && err != io.EOF {
			return Bundle{}, fmt.Errorf("failed to decode YAML bundle: %w", err)
		}
	default:
		return Bundle{}, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, format)
	}
	return b, nil
}

// Encode writes a bundle in the given format.
func Encode(w io.Writer, b Bundle, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, format)
	}
}

// LoadFile reads a bundle from a .json, .yaml or .yml file.
func LoadFile(path string) (Bundle, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Bundle{}, err
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the user on purpose
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read dataset: %w", err)
	}

	b, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Bundle{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(b.Fitness) == 0 {
		return Bundle{}, fmt.Errorf("%s: %w", path, common.ErrNoTraces)
	}
	return b, nil
}

// SaveFile writes a bundle, choosing the format from the extension.
func SaveFile(path string, b Bundle) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create dataset directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, b, format); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}
