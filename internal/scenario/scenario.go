// Package scenario loads scripted event sequences and replays them on a
// headless keyboard session, checking the state after each step.
package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	yaml "gopkg.in/yaml.v3"

	"github.com/latinkbd/kbdswitch/apitypes"
)

//go:embed scenario.schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/latinkbd/kbdswitch/scenario.schema.json"

var ErrInvalid = errors.New("invalid scenario")

// Document is one scenario file.
type Document struct {
	Name    string                        `json:"name,omitempty"`
	Session apitypes.SessionCreateRequest `json:"session"`
	Steps   []Step                        `json:"steps"`
}

type Step struct {
	Note   string         `json:"note,omitempty"`
	Event  apitypes.Event `json:"event"`
	Expect *Expect        `json:"expect,omitempty"`
}

// Expect lists the checks made after a step. Empty fields are not checked.
type Expect struct {
	Layout      string `json:"layout,omitempty"`
	Mode        string `json:"mode,omitempty"`
	SwitchState string `json:"switchState,omitempty"`
	ShiftState  string `json:"shiftState,omitempty"`
	Shifted     *bool  `json:"shifted,omitempty"`
	ShiftLocked *bool  `json:"shiftLocked,omitempty"`
	Momentary   *bool  `json:"momentary,omitempty"`
	Theme       string `json:"theme,omitempty"`
	// Error expects the event itself to fail.
	Error bool `json:"error,omitempty"`
}

var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add scenario schema: %w", err)
	}
	s, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile scenario schema: %w", err)
	}
	return s, nil
})

// Format returns the document format implied by a file name.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// Load reads and parses the scenario at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	doc, err := Parse(data, Format(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Parse decodes a yaml, toml or json document, validates it against the
// scenario schema and returns it.
func Parse(data []byte, format string) (*Document, error) {
	canonical, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(canonical))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s, err := schema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var doc Document
	if err := json.Unmarshal(canonical, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return &doc, nil
}

// toJSON re-encodes a document as JSON so every format shares one schema and
// one decoder.
func toJSON(data []byte, format string) ([]byte, error) {
	var generic any
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %w", ErrInvalid, err)
		}
	case "toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse toml: %w", ErrInvalid, err)
		}
		generic = tree.ToMap()
	case "json", "":
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", format)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return out, nil
}
