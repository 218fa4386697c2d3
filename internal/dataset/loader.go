package dataset

import (
	"encoding/csv"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lapalma/sunscan-go/internal/errors"
	"github.com/lapalma/sunscan-go/internal/logging"
)

// Package-level logger specific to dataset loading
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "dataset.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "dataset", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize dataset file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "dataset")
		closeLogger = func() error { return nil }
	}
}

// Loader reads observation CSV files and memoizes the resulting canonical
// dataset per source path. A cache entry must be invalidated explicitly
// after write-back so subsequent loads observe new data.
type Loader struct {
	cache *cache.Cache
}

// NewLoader creates a dataset loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

// Load returns the canonical dataset for the given source path, reading and
// normalizing the CSV on first use. A missing or unreadable source yields an
// empty dataset together with a user-visible error, callers treat the empty
// dataset as a terminal state for the current view.
func (l *Loader) Load(path string) (*Dataset, error) {
	if cached, found := l.cache.Get(path); found {
		if ds, ok := cached.(*Dataset); ok {
			logger.Debug("dataset cache hit", "path", path, "rows", len(ds.Rows))
			return ds, nil
		}
	}

	ds, err := readCSV(path)
	if err != nil {
		logger.Warn("dataset load failed", "path", path, "error", err)
		return &Dataset{Path: path}, err
	}

	l.cache.Set(path, ds, cache.NoExpiration)
	logger.Info("dataset loaded", "path", path, "rows", len(ds.Rows), "columns", len(ds.Columns))
	return ds, nil
}

// Invalidate drops the cache entry for the given source path. Must be called
// after any write-back so the next Load observes the new data.
func (l *Loader) Invalidate(path string) {
	l.cache.Delete(path)
	logger.Debug("dataset cache invalidated", "path", path)
}

// Close releases loader resources.
func (l *Loader) Close() {
	l.cache.Flush()
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing dataset logger: %v", err)
		}
	}
}

// readCSV reads and normalizes the observation table from a CSV file.
func readCSV(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf("could not find %q, make sure the observation database has been generated", path).
				Category(errors.CategoryNotFound).
				Context("path", path).
				Component("dataset").
				Build()
		}
		return nil, errors.Newf("failed to open dataset %q: %w", path, err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("dataset").
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &Dataset{Path: path}, nil
		}
		return nil, errors.Newf("failed to read dataset header: %w", err).
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Component("dataset").
			Build()
	}

	columns := slices.Clone(header)
	// polarimetry is materialized even when the source lacks the column so
	// every row carries an explicit "True"/"False"
	if !slices.Contains(columns, ColPolarimetry) {
		columns = append(columns, ColPolarimetry)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}

	ds := &Dataset{Path: path, Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Newf("failed to read dataset row %d: %w", len(ds.Rows)+1, err).
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Component("dataset").
				Build()
		}
		ds.Rows = append(ds.Rows, buildObservation(len(ds.Rows), colIndex, record))
	}

	return ds, nil
}

// buildObservation normalizes one raw CSV record into an Observation.
// Derived date parts are backfilled from the timestamp only when the source
// does not supply them as their own columns, source columns win verbatim.
func buildObservation(row int, colIndex map[string]int, record []string) Observation {
	cell := func(name string) (string, bool) {
		idx, ok := colIndex[name]
		if !ok || idx >= len(record) {
			return "", ok
		}
		return record[idx], true
	}

	obs := Observation{
		Row:         row,
		Instruments: []string{},
		ImageLinks:  []string{},
		VideoLinks:  []string{},
		Links:       []string{},
	}

	if raw, ok := cell(ColDateTime); ok {
		obs.Timestamp = ParseTimestamp(raw)
	}

	if raw, ok := cell(ColYear); ok {
		obs.Year = parseIntCell(raw)
	} else if obs.Timestamp != nil {
		year := obs.Timestamp.Year()
		obs.Year = &year
	}

	if raw, ok := cell(ColMonth); ok {
		obs.Month = parseIntCell(raw)
	} else if obs.Timestamp != nil {
		month := int(obs.Timestamp.Month())
		obs.Month = &month
	}

	if raw, ok := cell(ColDay); ok {
		obs.Day = parseIntCell(raw)
	} else if obs.Timestamp != nil {
		day := obs.Timestamp.Day()
		obs.Day = &day
	}

	if raw, ok := cell(ColTime); ok {
		obs.TimeOfDay = textCell(raw)
	} else if obs.Timestamp != nil {
		obs.TimeOfDay = obs.Timestamp.Format("15:04:05")
	}

	if raw, ok := cell(ColPolarimetry); ok {
		obs.Polarimetry = CoerceBool(raw)
	} else {
		obs.Polarimetry = "False"
	}

	if raw, ok := cell(ColInstruments); ok {
		obs.Instruments = NormalizeInstruments(CoerceList(raw))
	}
	if raw, ok := cell(ColVideoLinks); ok {
		obs.VideoLinks = CoerceList(raw)
	}
	if raw, ok := cell(ColImageLinks); ok {
		obs.ImageLinks = CoerceList(raw)
	}
	if raw, ok := cell(ColLinks); ok {
		obs.Links = CoerceList(raw)
	}

	if raw, ok := cell(ColTarget); ok {
		obs.Target = textCell(raw)
	}
	if raw, ok := cell(ColComments); ok {
		obs.Comments = textCell(raw)
	}

	for name, idx := range colIndex {
		if isRecognizedColumn(name) || idx >= len(record) {
			continue
		}
		if obs.Extra == nil {
			obs.Extra = make(map[string]string)
		}
		obs.Extra[name] = record[idx]
	}

	return obs
}

func isRecognizedColumn(name string) bool {
	switch name {
	case ColDateTime, ColYear, ColMonth, ColDay, ColTime, ColPolarimetry,
		ColInstruments, ColTarget, ColComments, ColVideoLinks, ColImageLinks, ColLinks:
		return true
	}
	return false
}

// textCell keeps free text verbatim but maps the pandas NaN sentinel to
// empty, matching a null cell.
func textCell(raw string) string {
	if isNaN(raw) {
		return ""
	}
	return raw
}
