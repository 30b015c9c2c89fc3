package snapshot

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dashdeck/dashboard-server/pkg/iohelper"
	"github.com/dashdeck/dashboard-server/pkg/jsonutil"
)

// MaxFileSize bounds snapshot files read from disk.
const MaxFileSize int64 = 1 << 20

// Format is a snapshot file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported file extension %q (want .json, .yaml or .yml)", ErrInvalidSnapshot, filepath.Ext(path))
	}
}

// LoadFile reads, decodes and validates a snapshot file.
func LoadFile(path string) (Snapshot, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	data, err := iohelper.ReadFile(path, MaxFileSize)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	s, err := Decode(data, format)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode parses data in the given format. The input is checked against the
// snapshot schema, decoded strictly (unknown members are rejected), and then
// passed through Validate.
func Decode(data []byte, format Format) (Snapshot, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return Snapshot{}, err
	}

	var instance any
	if err := jsonutil.Unmarshal(raw, &instance); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := validateShape(instance); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	var s Snapshot
	if err := jsonutil.UnmarshalStrict(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := Validate(s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if !jsonutil.Valid(data) {
			return nil, fmt.Errorf("%w: input is not a well-formed JSON document", ErrInvalidSnapshot)
		}
		return data, nil
	case FormatYAML:
		var doc any
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: parsing yaml: %w", ErrInvalidSnapshot, err)
		}
		out, err := jsonutil.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: converting yaml: %w", ErrInvalidSnapshot, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidSnapshot, format)
	}
}

// EncodeYAML renders s as YAML.
func EncodeYAML(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
