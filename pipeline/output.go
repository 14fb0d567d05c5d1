// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/katalvlaran/gravcal/matrixio"
	"github.com/katalvlaran/gravcal/model"
	"github.com/katalvlaran/gravcal/report"
	"github.com/katalvlaran/gravcal/stats"
	"github.com/katalvlaran/gravcal/table"
)

// writePredictions stores TPred_<k>.bin for every calibrated mode, k being
// the 1-based position of the mode in the dataset.
func (p *Pipeline) writePredictions(sum *Summary) error {
	for k, o := range sum.Outcomes {
		if o.Result == nil {
			continue
		}
		path := p.cfg.OutputPath(fmt.Sprintf("TPred_%d.bin", k+1))
		if err := matrixio.Store(path, o.Result.TPred); err != nil {
			return fmt.Errorf("pipeline: mode %q: %w", o.Mode, err)
		}
		sum.Written = append(sum.Written, path)
	}

	return nil
}

func (p *Pipeline) writeReport(rep *stats.Report) (string, error) {
	if p.cfg.Outputs.Statistics == "" {
		return "", nil
	}
	path := p.cfg.OutputPath(p.cfg.Outputs.Statistics)
	if err := report.Write(path, rep); err != nil {
		return "", fmt.Errorf("pipeline: %w", err)
	}
	p.log.Info("statistics written", "path", path)

	return path, nil
}

// writeGeocoded writes Dj<Mode>Obs.csv and Dj<Mode>Pred.csv, joining the
// destination totals to the zone codes table.
func (p *Pipeline) writeGeocoded(sum *Summary, ds *model.Dataset) error {
	if p.cfg.Tables.ZoneCodes == "" {
		return nil
	}
	t, err := table.LoadCSV(p.cfg.InputPath(p.cfg.Tables.ZoneCodes))
	if err != nil {
		return fmt.Errorf("pipeline: zone codes: %w", err)
	}
	zones, err := table.NewZoneLookup(t, table.DefaultZoneColumns)
	if err != nil {
		return fmt.Errorf("pipeline: zone codes: %w", err)
	}

	for k, o := range sum.Outcomes {
		if o.Result == nil {
			continue
		}
		name := title(o.Mode)
		for _, out := range []struct {
			file string
			dj   []float64
		}{
			{"Dj" + name + "Obs.csv", ds.Modes[k].TObs.DestinationTotals()},
			{"Dj" + name + "Pred.csv", o.Result.TPred.DestinationTotals()},
		} {
			geo, err := zones.Geocode(out.dj, "Dj")
			if err != nil {
				return fmt.Errorf("pipeline: mode %q: %w", o.Mode, err)
			}
			path := p.cfg.OutputPath(out.file)
			if err := table.WriteCSV(path, geo); err != nil {
				return fmt.Errorf("pipeline: %w", err)
			}
			sum.Written = append(sum.Written, path)
		}
	}

	return nil
}

// writeConstraints stores each constrained mode's effective attraction
// vector next to the configured write-back name, suffixed by the mode.
func (p *Pipeline) writeConstraints(sum *Summary, ds *model.Dataset) error {
	if !p.cfg.Constraints.Enabled || p.cfg.Constraints.WriteTo == "" {
		return nil
	}
	for k, o := range sum.Outcomes {
		cs := ds.Modes[k].Constraints
		if o.Result == nil || cs == nil {
			continue
		}
		path := p.cfg.OutputPath(perMode(p.cfg.Constraints.WriteTo, o.Mode))
		if err := matrixio.StoreVector(path, cs.Attraction()); err != nil {
			return fmt.Errorf("pipeline: mode %q: %w", o.Mode, err)
		}
		p.log.V(1).Info("attraction written back", "mode", o.Mode, "path", path, "clamped", len(cs.Clamped()))
		sum.Written = append(sum.Written, path)
	}

	return nil
}

func (p *Pipeline) writeMetrics() (string, error) {
	if p.cfg.Outputs.MetricsTextfile == "" {
		return "", nil
	}
	path := p.cfg.OutputPath(p.cfg.Outputs.MetricsTextfile)
	if err := p.rec.WriteTextfile(path); err != nil {
		return "", fmt.Errorf("pipeline: %w", err)
	}

	return path, nil
}

// perMode inserts "_<mode>" before the extension of name, keeping a
// trailing snappy suffix in place: Constraints_B.bin.sz -> Constraints_B_bus.bin.sz.
func perMode(name, mode string) string {
	sz := ""
	if strings.HasSuffix(strings.ToLower(name), matrixio.SnappyExt) {
		sz = name[len(name)-len(matrixio.SnappyExt):]
		name = name[:len(name)-len(matrixio.SnappyExt)]
	}
	ext := filepath.Ext(name)

	return strings.TrimSuffix(name, ext) + "_" + mode + ext + sz
}

// title upper-cases the first rune of s.
func title(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
