package maps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mapsim/internal/dynamo"
)

// definitionFile is the on-disk record. It accepts "modulus" as an alias
// for "mod".
type definitionFile struct {
	Definition `yaml:",inline"`
	Alias      *float64 `json:"modulus,omitempty" yaml:"modulus,omitempty"`
}

// Format names a definition file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Parse decodes and validates one definition.
func Parse(data []byte, format Format) (*Definition, error) {
	var f definitionFile
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, dynamo.Invalid("format", "unknown definition format %q", format)
	}

	def := f.Definition
	if f.Alias != nil {
		if def.Modulus != 0 && def.Modulus != *f.Alias {
			return nil, dynamo.Invalid("mod", "map %s: mod and modulus disagree", def.Name)
		}
		def.Modulus = *f.Alias
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ReadFile loads a definition file. A relative image path is resolved
// against the file's directory.
func ReadFile(path string) (*Definition, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, dynamo.Invalid("format", "%s: unsupported extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if def.Image != "" && !filepath.IsAbs(def.Image) {
		def.Image = filepath.Join(filepath.Dir(path), def.Image)
	}
	return def, nil
}

// Encode writes def in the given format.
func Encode(def *Definition, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(def, "", "  ")
	case FormatYAML:
		return yaml.Marshal(def)
	}
	return nil, dynamo.Invalid("format", "unknown definition format %q", format)
}
