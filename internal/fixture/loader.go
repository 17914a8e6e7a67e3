package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pcicap/pcicap-go/pkg/inspect"
)

// Parse parses a fixture from YAML bytes.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	// Validate required fields
	if f.ID == "" {
		return nil, &LoadError{
			Message: "fixture ID is required",
		}
	}

	if f.Header == nil && f.Dump == "" {
		return nil, &LoadError{
			Message: "fixture must have a header or a dump",
		}
	}

	for i, e := range f.Expect {
		if err := e.validate(); err != nil {
			return nil, &LoadError{
				Message: fmt.Sprintf("expect[%d]", i),
				Cause:   err,
			}
		}
	}

	return &f, nil
}

func (e Expectation) validate() error {
	if e.Capability == "" && e.Error == "" {
		return errors.New("capability or error is required")
	}
	if e.Capability != "" {
		if _, ok := inspect.ResolveCapabilityName(e.Capability); !ok {
			return fmt.Errorf("unknown capability %q", e.Capability)
		}
	}
	if e.Error != "" {
		if _, ok := expectedErrors[e.Error]; !ok {
			return fmt.Errorf("unknown error %q", e.Error)
		}
	}
	if e.Summary != "" && e.Error != "" {
		return errors.New("summary and error are exclusive")
	}
	return nil
}

// LoadFile loads a fixture from a file.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	f, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	return f, nil
}

// LoadDirectory loads all fixtures from a directory, in file name order.
// Only files with .yaml or .yml extensions are loaded.
func LoadDirectory(dir string) ([]*Fixture, error) {
	var fixtures []*Fixture

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{
			File:    dir,
			Message: "failed to read directory",
			Cause:   err,
		}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		f, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		fixtures = append(fixtures, f)
	}

	return fixtures, nil
}
