// SPDX-License-Identifier: MIT

package report

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/katalvlaran/gravcal/stats"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by Write and Read for an unsupported extension.
var ErrUnknownFormat = errors.New("report: unknown report format")

// document is the serialised form of stats.Report.
type document struct {
	XMLName         xml.Name  `xml:"StatisticsData" yaml:"-"`
	Zones           int       `xml:"Zones" yaml:"zones"`
	PopulationZones int       `xml:"PopulationZones" yaml:"populationZones"`
	TotalPopulation float64   `xml:"TotalPopulation" yaml:"totalPopulation"`
	Modes           []modeDoc `xml:"Modes>Mode" yaml:"modes"`
}

type modeDoc struct {
	Name       string    `xml:"name,attr" yaml:"name"`
	Beta       float64   `xml:"Beta" yaml:"beta"`
	CBarObs    float64   `xml:"CBarObs" yaml:"cbarObs"`
	CBarPred   float64   `xml:"CBarPred" yaml:"cbarPred"`
	Phid       float64   `xml:"Phid" yaml:"phid"`
	Iterations int       `xml:"Iterations" yaml:"iterations"`
	Converged  bool      `xml:"Converged" yaml:"converged"`
	DjObs      []float64 `xml:"DjObs>Zone" yaml:"djObs,flow"`
	DjPred     []float64 `xml:"DjPred>Zone,omitempty" yaml:"djPred,flow,omitempty"`
	Notes      []string  `xml:"Notes>Note,omitempty" yaml:"notes,omitempty"`
	Error      string    `xml:"Error,omitempty" yaml:"error,omitempty"`
}

func toDocument(r *stats.Report) document {
	d := document{
		Zones:           r.Zones,
		PopulationZones: r.PopulationZones,
		TotalPopulation: r.TotalPopulation,
		Modes:           make([]modeDoc, len(r.Modes)),
	}
	for k, m := range r.Modes {
		d.Modes[k] = modeDoc{
			Name: m.Mode, Beta: m.Beta, CBarObs: m.CBarObs, CBarPred: m.CBarPred, Phid: m.Phid,
			Iterations: m.Iterations, Converged: m.Converged,
			DjObs: m.DjObs, DjPred: m.DjPred, Notes: m.Notes, Error: m.Err,
		}
	}

	return d
}

func (d document) report() *stats.Report {
	r := &stats.Report{
		Zones:           d.Zones,
		PopulationZones: d.PopulationZones,
		TotalPopulation: d.TotalPopulation,
		Modes:           make([]stats.ModeStats, len(d.Modes)),
	}
	for k, m := range d.Modes {
		r.Modes[k] = stats.ModeStats{
			Mode: m.Name, Beta: m.Beta, CBarObs: m.CBarObs, CBarPred: m.CBarPred, Phid: m.Phid,
			Iterations: m.Iterations, Converged: m.Converged,
			DjObs: m.DjObs, DjPred: m.DjPred, Notes: m.Notes, Err: m.Error,
		}
	}

	return r
}

// EncodeXML writes r as an indented XML document.
func EncodeXML(w io.Writer, r *stats.Report) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(toDocument(r)); err != nil {
		return fmt.Errorf("report: xml: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return nil
}

// EncodeYAML writes r as a YAML document.
func EncodeYAML(w io.Writer, r *stats.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(r)); err != nil {
		return fmt.Errorf("report: yaml: %w", err)
	}

	return enc.Close()
}

// DecodeXML reads a document written by EncodeXML.
func DecodeXML(rd io.Reader) (*stats.Report, error) {
	var d document
	if err := xml.NewDecoder(rd).Decode(&d); err != nil {
		return nil, fmt.Errorf("report: xml: %w", err)
	}

	return d.report(), nil
}

// DecodeYAML reads a document written by EncodeYAML.
func DecodeYAML(rd io.Reader) (*stats.Report, error) {
	var d document
	if err := yaml.NewDecoder(rd).Decode(&d); err != nil {
		return nil, fmt.Errorf("report: yaml: %w", err)
	}

	return d.report(), nil
}

// WriteXML writes r to path as XML.
func WriteXML(path string, r *stats.Report) error { return writeFile(path, r, EncodeXML) }

// WriteYAML writes r to path as YAML.
func WriteYAML(path string, r *stats.Report) error { return writeFile(path, r, EncodeYAML) }

// Write picks the encoding from the extension of path (.xml, .yaml, .yml).
func Write(path string, r *stats.Report) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return WriteXML(path, r)
	case ".yaml", ".yml":
		return WriteYAML(path, r)
	}

	return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Read loads a report written by Write.
func Read(path string) (*stats.Report, error) {
	var dec func(io.Reader) (*stats.Report, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		dec = DecodeXML
	case ".yaml", ".yml":
		dec = DecodeYAML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	return dec(f)
}

func writeFile(path string, r *stats.Report, enc func(io.Writer, *stats.Report) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("report: close %s: %w", path, cerr)
		}
	}()

	return enc(f, r)
}
