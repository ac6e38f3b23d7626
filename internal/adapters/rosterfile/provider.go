// Package rosterfile serves the roster from a local YAML file, for running
// without Google credentials.
package rosterfile

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/dkeye/steward/internal/core"
	"github.com/dkeye/steward/internal/domain"
)

type document struct {
	Members []domain.RosterEntry `yaml:"members"`
}

// Provider re-reads the file on every fetch, so edits apply on the next
// cycle.
type Provider struct {
	path string
}

func New(path string) *Provider {
	return &Provider{path: path}
}

func (p *Provider) FetchAll(_ context.Context) ([]domain.RosterEntry, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, core.Fatal(fmt.Errorf("read roster file: %w", err))
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, core.Fatal(fmt.Errorf("%w: roster file %s: %w", core.ErrMalformed, p.path, err))
	}
	log.Debug().Str("module", "adapters.rosterfile").Str("path", p.path).Int("entries", len(doc.Members)).Msg("roster loaded")
	return doc.Members, nil
}
