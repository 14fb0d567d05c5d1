// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/katalvlaran/gravcal/balance"
	"github.com/katalvlaran/gravcal/matrixio"
	"github.com/katalvlaran/gravcal/model"
	"github.com/katalvlaran/gravcal/stats"
	"github.com/katalvlaran/gravcal/table"
	"golang.org/x/sync/errgroup"
)

// writeManifest lists every file under the inputs directory, one
// "File: <path>" line each, into the manifest. A missing inputs directory
// yields an empty manifest.
func (p *Pipeline) writeManifest() (string, error) {
	if p.cfg.Outputs.Manifest == "" {
		return "", nil
	}
	var lines []string
	err := filepath.WalkDir(p.cfg.InputsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			lines = append(lines, "File: "+path)
		}

		return nil
	})
	switch {
	case errors.Is(err, fs.ErrNotExist):
		p.log.Info("inputs directory not found, manifest left empty", "dir", p.cfg.InputsDir)
	case err != nil:
		return "", fmt.Errorf("pipeline: scanning %s: %w", p.cfg.InputsDir, err)
	}

	path := p.cfg.OutputPath(p.cfg.Outputs.Manifest)
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("pipeline: %w", err)
	}
	p.log.V(1).Info("inputs manifest written", "path", path, "files", len(lines))

	return path, nil
}

// loadDataset reads every mode's matrices, at most Workers files at a time,
// and attaches a private ConstraintSet per mode when constraints are on.
func (p *Pipeline) loadDataset(ctx context.Context) (*model.Dataset, error) {
	var capacity []float64
	if p.cfg.Constraints.Enabled {
		var err error
		path := p.cfg.InputPath(p.cfg.Constraints.Capacity)
		if capacity, err = matrixio.LoadVector(path); err != nil {
			return nil, fmt.Errorf("pipeline: capacity: %w", err)
		}
		p.log.Info("capacity constraints loaded", "path", path, "zones", len(capacity))
	}

	modes := make([]model.Mode, len(p.cfg.Modes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for k, mc := range p.cfg.Modes {
		k, mc := k, mc // per-iteration copies (go 1.21 loop semantics)
		modes[k].Name = mc.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := matrixio.Load(p.cfg.InputPath(mc.TObs))
			if err != nil {
				return fmt.Errorf("pipeline: mode %q TObs: %w", mc.Name, err)
			}
			modes[k].TObs = m
			return nil
		})
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := matrixio.Load(p.cfg.InputPath(mc.Dis))
			if err != nil {
				return fmt.Errorf("pipeline: mode %q dis: %w", mc.Name, err)
			}
			modes[k].Dis = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if capacity != nil {
		for k := range modes {
			cs, err := balance.NewConstraintSet(capacity)
			if err != nil {
				return nil, fmt.Errorf("pipeline: capacity: %w", err)
			}
			modes[k].Constraints = cs
		}
	}

	ds, err := model.NewDataset(modes...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	n, _ := ds.Validate()
	p.log.Info("dataset loaded", "modes", len(modes), "zones", n)

	return ds, nil
}

// loadPopulation summarises the population table; zero when not configured.
func (p *Pipeline) loadPopulation() (stats.Population, error) {
	if p.cfg.Tables.Population == "" {
		return stats.Population{}, nil
	}
	t, err := table.LoadCSV(p.cfg.InputPath(p.cfg.Tables.Population))
	if err != nil {
		return stats.Population{}, fmt.Errorf("pipeline: population: %w", err)
	}
	total, err := t.Sum(p.cfg.Tables.PopulationColumn)
	if err != nil {
		return stats.Population{}, fmt.Errorf("pipeline: population: %w", err)
	}

	return stats.Population{Zones: t.Len(), Total: total}, nil
}
