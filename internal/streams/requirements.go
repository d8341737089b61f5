package streams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RequirementsFile is the per-directory override file consulted by
// LoadRequirements.
const RequirementsFile = ".lxd_requirements"

// requirementsLevels is the number of directories searched, starting
// with the product directory itself.
const requirementsLevels = 4

const requirementsSchemaText = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {
    "type": ["string", "number", "boolean", "null"]
  }
}`

var requirementsSchema = jsonschema.MustCompileString("lxd_requirements.schema.json", requirementsSchemaText)

// Requirements is a flat set of lxd_requirements overrides.
type Requirements map[string]any

// RequirementsError reports an override file that could not be used.
type RequirementsError struct {
	Path string
	Err  error
}

func (e *RequirementsError) Error() string {
	return fmt.Sprintf("invalid requirements file %s: %v", e.Path, e.Err)
}

func (e *RequirementsError) Unwrap() error { return e.Err }

// MergeRequirements merges layers ordered nearest first: when several
// layers define the same key, the earliest layer wins.
func MergeRequirements(layers ...Requirements) Requirements {
	merged := Requirements{}
	for i := len(layers) - 1; i >= 0; i-- {
		for k, v := range layers[i] {
			merged[k] = v
		}
	}
	return merged
}

// LoadRequirements reads RequirementsFile from productDir and its three
// parents and merges them so that files nearer to productDir take
// precedence. Missing files are skipped.
func LoadRequirements(productDir string) (Requirements, error) {
	var layers []Requirements

	dir := productDir
	for i := 0; i < requirementsLevels; i++ {
		layer, err := readRequirements(filepath.Join(dir, RequirementsFile))
		if err != nil {
			return nil, err
		}
		if layer != nil {
			layers = append(layers, layer)
		}
		dir = filepath.Dir(dir)
	}

	return MergeRequirements(layers...), nil
}

func readRequirements(path string) (Requirements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseRequirements(path, data)
}

// ParseRequirements decodes and validates the content of a requirements
// file; path is only used in errors.
func ParseRequirements(path string, data []byte) (Requirements, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &RequirementsError{Path: path, Err: err}
	}
	if dec.More() {
		return nil, &RequirementsError{Path: path, Err: fmt.Errorf("trailing data after json object")}
	}
	if err := requirementsSchema.Validate(doc); err != nil {
		return nil, &RequirementsError{Path: path, Err: err}
	}

	obj := doc.(map[string]any)
	return Requirements(obj), nil
}
