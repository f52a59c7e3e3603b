package project

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// sourcesFile is the on-disk shape of sources.yaml.
type sourcesFile struct {
	Sources []core.Source `yaml:"sources"`
}

// LoadSources reads declared external sources from a sources.yaml file.
// A missing file is not an error: projects without external sources simply
// omit it.
func LoadSources(path string) ([]core.Source, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from project config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var file sourcesFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, src := range file.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return nil, fmt.Errorf("parse %s: source %d has no name", path, i)
		}
	}

	return file.Sources, nil
}
