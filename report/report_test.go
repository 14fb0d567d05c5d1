// SPDX-License-Identifier: MIT
// Package report_test checks the XML and YAML renderings of a stats.Report.
package report_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/katalvlaran/gravcal/report"
	"github.com/katalvlaran/gravcal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *stats.Report {
	return &stats.Report{
		Zones:           3,
		PopulationZones: 3,
		TotalPopulation: 22000.5,
		Modes: []stats.ModeStats{
			{
				Mode: "road", Beta: 0.125, CBarObs: 31.5, CBarPred: 31.5004, Phid: 0.97,
				Iterations: 9, Converged: true,
				DjObs: []float64{10, 20, 30}, DjPred: []float64{11, 19, 30},
			},
			{
				Mode: "bus", DjObs: []float64{0, 0, 1},
				Err: `calibrate: mode "bus": CBarObs: matrix: degenerate input (zero total)`,
			},
			{
				Mode: "rail", Beta: 0.02, CBarObs: 80, CBarPred: 79.9, Phid: 0.8,
				Iterations: 100, DjObs: []float64{1, 2, 3}, DjPred: []float64{2, 2, 2},
				Notes: []string{"beta-search: convergence not reached after 100 iterations"},
			},
		},
	}
}

func TestEncodeXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.EncodeXML(&buf, sampleReport()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<StatisticsData>")
	assert.Contains(t, out, `<Mode name="road">`)
	assert.Contains(t, out, "<Beta>0.125</Beta>")
	assert.Contains(t, out, "<DjObs>\n        <Zone>10</Zone>")
	assert.Contains(t, out, "<Error>calibrate: mode &#34;bus&#34;")
	assert.NotContains(t, out, "<DjPred></DjPred>")
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.EncodeYAML(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "zones: 3\n")
	assert.Contains(t, out, "- name: road\n")
	assert.Contains(t, out, "djObs: [10, 20, 30]\n")
	assert.NotContains(t, out, "StatisticsData")
}

func TestWriteRead_Files(t *testing.T) {
	dir := t.TempDir()
	want := sampleReport()
	for _, name := range []string{"stats.xml", "stats.yaml", "stats.YML"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, report.Write(path, want))

			got, err := report.Read(path)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	assert.ErrorIs(t, report.Write(path, sampleReport()), report.ErrUnknownFormat)
	_, err := report.Read(path)
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}
