package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// jurisdictionsFile is the YAML registry shape:
//
//	jurisdictions:
//	  - id: austin
//	    description: Austin, Texas Land Development Code
type jurisdictionsFile struct {
	Jurisdictions []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
	} `yaml:"jurisdictions"`
}

// loadJurisdictionsFile reads a jurisdiction registry. Entries without an id
// are rejected; a missing description falls back to the id.
func loadJurisdictionsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jurisdictions file: %w", err)
	}

	var f jurisdictionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse jurisdictions file %s: %w", path, err)
	}

	out := make(map[string]string, len(f.Jurisdictions))
	for i, j := range f.Jurisdictions {
		id := strings.TrimSpace(j.ID)
		if id == "" {
			return nil, fmt.Errorf("jurisdictions file %s: entry %d has no id", path, i)
		}
		desc := strings.TrimSpace(j.Description)
		if desc == "" {
			desc = id
		}
		out[id] = desc
	}
	return out, nil
}
