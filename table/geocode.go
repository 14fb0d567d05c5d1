// SPDX-License-Identifier: MIT

package table

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/katalvlaran/gravcal/matrix"
)

// ErrDuplicateZone is returned when two lookup rows claim the same zone index.
var ErrDuplicateZone = errors.New("table: duplicate zone index")

// ZoneColumns names the lookup-table columns used for geocoding.
type ZoneColumns struct {
	Index string // integer zone index 0..N-1 (matrix row/column)
	Code  string // area code
	Lat   string
	Lon   string
}

// DefaultZoneColumns matches the zone code tables shipped with model runs.
var DefaultZoneColumns = ZoneColumns{Index: "zonei", Code: "areakey", Lat: "lat", Lon: "lon"}

type zone struct {
	code, lat, lon string
}

// ZoneLookup maps matrix zone indices to area codes and coordinates.
type ZoneLookup struct {
	cols  ZoneColumns
	zones []zone // by zone index
}

// NewZoneLookup indexes t by cols.Index. Indices must cover 0..Len()-1 once
// each.
func NewZoneLookup(t *Table, cols ZoneColumns) (*ZoneLookup, error) {
	for _, name := range []string{cols.Index, cols.Code, cols.Lat, cols.Lon} {
		if _, err := t.Column(name); err != nil {
			return nil, err
		}
	}

	z := &ZoneLookup{cols: cols, zones: make([]zone, t.Len())}
	seen := make([]bool, t.Len())
	for row := 0; row < t.Len(); row++ {
		raw, _ := t.Value(row, cols.Index)
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("table: zone lookup row %d: %w", row, err)
		}
		if idx < 0 || idx >= len(z.zones) {
			return nil, fmt.Errorf("table: zone lookup row %d: index %d of %d: %w", row, idx, len(z.zones), ErrBadRow)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateZone, idx)
		}
		seen[idx] = true

		code, _ := t.Value(row, cols.Code)
		lat, _ := t.Value(row, cols.Lat)
		lon, _ := t.Value(row, cols.Lon)
		z.zones[idx] = zone{code: code, lat: lat, lon: lon}
	}

	return z, nil
}

// Len returns the number of zones.
func (z *ZoneLookup) Len() int { return len(z.zones) }

// Code returns the area code of zone idx.
func (z *ZoneLookup) Code(idx int) (string, bool) {
	if idx < 0 || idx >= len(z.zones) {
		return "", false
	}

	return z.zones[idx].code, true
}

// Geocode attaches a per-zone value (typically Dj) to each zone's code and
// coordinates. The result has columns Index, Code, Lat, Lon and valueCol,
// one row per zone in index order.
//
// Errors: matrix.ErrDimensionMismatch when len(values) != Len().
func (z *ZoneLookup) Geocode(values []float64, valueCol string) (*Table, error) {
	if len(values) != len(z.zones) {
		return nil, fmt.Errorf("table: geocode %d values for %d zones: %w", len(values), len(z.zones), matrix.ErrDimensionMismatch)
	}
	out, err := New([]string{z.cols.Index, z.cols.Code, z.cols.Lat, z.cols.Lon, valueCol}, nil)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]string, len(values))
	for i, v := range values {
		zn := z.zones[i]
		out.rows[i] = []string{strconv.Itoa(i), zn.code, zn.lat, zn.lon, strconv.FormatFloat(v, 'g', -1, 64)}
	}

	return out, nil
}
