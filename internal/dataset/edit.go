package dataset

import (
	"maps"
	"slices"

	"github.com/lapalma/sunscan-go/internal/errors"
)

// EditSet maps row index -> column name -> new raw cell value. Values go
// through the same coercion rules as loading, so an edited list column may
// be entered as "a.jpg;b.png" and an edited polarimetry cell as "true".
type EditSet map[int]map[string]string

// ApplyEdits returns a new working copy of the dataset with the edits
// applied. The receiver is never mutated, the caller owns the returned copy
// and decides whether to Save it.
func (d *Dataset) ApplyEdits(edits EditSet) (*Dataset, error) {
	out := &Dataset{
		Path:    d.Path,
		Columns: slices.Clone(d.Columns),
		Rows:    make([]Observation, len(d.Rows)),
	}
	for i := range d.Rows {
		out.Rows[i] = cloneObservation(&d.Rows[i])
	}

	for row, cells := range edits {
		if row < 0 || row >= len(out.Rows) {
			return nil, errors.Newf("edit references row %d outside dataset of %d rows", row, len(out.Rows)).
				Category(errors.CategoryValidation).
				Context("row", row).
				Component("dataset").
				Build()
		}
		for column, raw := range cells {
			if !slices.Contains(out.Columns, column) {
				return nil, errors.Newf("edit references unknown column %q", column).
					Category(errors.CategoryValidation).
					Context("column", column).
					Component("dataset").
					Build()
			}
			applyCell(&out.Rows[row], column, raw)
		}
	}

	return out, nil
}

// applyCell coerces one edited raw value into the typed row field.
func applyCell(obs *Observation, column, raw string) {
	switch column {
	case ColDateTime:
		obs.Timestamp = ParseTimestamp(raw)
	case ColYear:
		obs.Year = parseIntCell(raw)
	case ColMonth:
		obs.Month = parseIntCell(raw)
	case ColDay:
		obs.Day = parseIntCell(raw)
	case ColTime:
		obs.TimeOfDay = textCell(raw)
	case ColPolarimetry:
		obs.Polarimetry = CoerceBool(raw)
	case ColInstruments:
		obs.Instruments = NormalizeInstruments(CoerceList(raw))
	case ColVideoLinks:
		obs.VideoLinks = CoerceList(raw)
	case ColImageLinks:
		obs.ImageLinks = CoerceList(raw)
	case ColLinks:
		obs.Links = CoerceList(raw)
	case ColTarget:
		obs.Target = textCell(raw)
	case ColComments:
		obs.Comments = textCell(raw)
	default:
		if obs.Extra == nil {
			obs.Extra = make(map[string]string)
		}
		obs.Extra[column] = raw
	}
}

func cloneObservation(src *Observation) Observation {
	out := *src
	out.Timestamp = clonePtr(src.Timestamp)
	out.Year = clonePtr(src.Year)
	out.Month = clonePtr(src.Month)
	out.Day = clonePtr(src.Day)
	out.Instruments = slices.Clone(src.Instruments)
	out.ImageLinks = slices.Clone(src.ImageLinks)
	out.VideoLinks = slices.Clone(src.VideoLinks)
	out.Links = slices.Clone(src.Links)
	if src.Extra != nil {
		out.Extra = maps.Clone(src.Extra)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
