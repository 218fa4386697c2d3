package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lapalma/sunscan-go/internal/errors"
)

// listJoinSeparator is used when re-serializing list-valued columns for
// write-back and export.
const listJoinSeparator = ";"

// MarshalCSV serializes the dataset back to CSV using the original source
// column order. List columns are joined with ";" and derived-only fields
// (primary/additional media, parsed time helper) are not part of the
// canonical dataset, so nothing else needs dropping.
func (d *Dataset) MarshalCSV() ([]byte, error) {
	return marshalRows(d.Columns, d.Rows)
}

// ExportCSV serializes a filtered subset of rows with the same column order
// and list serialization rule as write-back, for query downloads.
func (d *Dataset) ExportCSV(rows []Observation) ([]byte, error) {
	return marshalRows(d.Columns, rows)
}

func marshalRows(columns []string, rows []Observation) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(columns); err != nil {
		return nil, errors.Newf("failed to write CSV header: %w", err).
			Category(errors.CategoryFileIO).
			Component("dataset").
			Build()
	}

	record := make([]string, len(columns))
	for i := range rows {
		for j, column := range columns {
			record[j] = rows[i].cellValue(column)
		}
		if err := writer.Write(record); err != nil {
			return nil, errors.Newf("failed to write CSV row %d: %w", i, err).
				Category(errors.CategoryFileIO).
				Component("dataset").
				Build()
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, errors.Newf("failed to flush CSV output: %w", err).
			Category(errors.CategoryFileIO).
			Component("dataset").
			Build()
	}
	return buf.Bytes(), nil
}

// cellValue renders one column of the observation in its write-back form.
func (o *Observation) cellValue(column string) string {
	switch column {
	case ColDateTime:
		if o.Timestamp == nil {
			return ""
		}
		return o.Timestamp.Format("2006-01-02 15:04:05")
	case ColYear:
		return intCell(o.Year)
	case ColMonth:
		return intCell(o.Month)
	case ColDay:
		return intCell(o.Day)
	case ColTime:
		return o.TimeOfDay
	case ColPolarimetry:
		return o.Polarimetry
	case ColInstruments:
		return strings.Join(o.Instruments, listJoinSeparator)
	case ColVideoLinks:
		return strings.Join(o.VideoLinks, listJoinSeparator)
	case ColImageLinks:
		return strings.Join(o.ImageLinks, listJoinSeparator)
	case ColLinks:
		return strings.Join(o.Links, listJoinSeparator)
	case ColTarget:
		return o.Target
	case ColComments:
		return o.Comments
	default:
		return o.Extra[column]
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// Save writes the dataset back to its source path atomically and invalidates
// the cache entry so the next Load observes the new data.
func (l *Loader) Save(d *Dataset, path string) error {
	data, err := d.MarshalCSV()
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), "obs-*.csv")
	if err != nil {
		return errors.Newf("failed to create temporary dataset file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("dataset").
			Build()
	}
	tempName := tempFile.Name()
	defer os.Remove(tempName)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return errors.Newf("failed to write dataset: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("dataset").
			Build()
	}
	if err := tempFile.Close(); err != nil {
		return errors.Newf("failed to close temporary dataset file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("dataset").
			Build()
	}

	if err := os.Rename(tempName, path); err != nil {
		return errors.Newf("failed to replace dataset file: %w", err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("dataset").
			Build()
	}

	l.Invalidate(path)
	logger.Info("dataset saved", "path", path, "rows", len(d.Rows))
	return nil
}
