package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lapalma/sunscan-go/internal/dataset"
	"github.com/lapalma/sunscan-go/internal/errors"
	"github.com/lapalma/sunscan-go/internal/filter"
	"github.com/lapalma/sunscan-go/internal/media"
)

// initObservationRoutes registers the observation query and edit endpoints.
func (c *Controller) initObservationRoutes() {
	c.Group.GET("/observations", c.GetObservations)
	c.Group.GET("/observations/options", c.GetFilterOptions)
	c.Group.GET("/observations/export", c.ExportObservations)
	c.Group.PATCH("/observations", c.EditObservations)
	c.Group.POST("/cache/reload", c.ReloadDataset)
}

// ObservationEntry is one observation row with its derived media bundle
// and the featured link from the free-form links column.
type ObservationEntry struct {
	dataset.Observation
	Media         media.Bundle `json:"media"`
	PreferredLink string       `json:"preferred_link,omitempty"`
}

// ObservationsResponse is the query endpoint response body.
type ObservationsResponse struct {
	Total    int                `json:"total"`
	Returned int                `json:"returned"`
	Rows     []ObservationEntry `json:"rows"`
}

// GetObservations returns the filtered observation rows, newest first,
// each with its media bundle.
func (c *Controller) GetObservations(ctx echo.Context) error {
	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		return c.handleDatasetError(ctx, err)
	}

	criteria, err := criteriaFromQuery(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid filter criteria", http.StatusBadRequest)
	}

	rows := dataset.SortByTimestampDesc(filter.Apply(ds.Rows, criteria))
	total := len(rows)

	limit := queryInt(ctx, "limit", 0)
	offset := queryInt(ctx, "offset", 0)
	if offset > 0 {
		if offset > len(rows) {
			offset = len(rows)
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	entries := make([]ObservationEntry, len(rows))
	for i := range rows {
		bundle := media.ForObservation(&rows[i])
		bundle.Truncate(c.Settings.Dataset.MaxAdditionalSources)
		entries[i] = ObservationEntry{
			Observation:   rows[i],
			Media:         bundle,
			PreferredLink: media.PreferredLink(rows[i].Links),
		}
	}

	return ctx.JSON(http.StatusOK, ObservationsResponse{
		Total:    total,
		Returned: len(entries),
		Rows:     entries,
	})
}

// FilterOptionsResponse lists the selectable values for filter pickers.
type FilterOptionsResponse struct {
	Instruments []string `json:"instruments"`
	Targets     []string `json:"targets"`
	YearMin     int      `json:"year_min"`
	YearMax     int      `json:"year_max"`
}

// GetFilterOptions returns the distinct instruments, targets and year range
// of the filtered view, so pickers only offer values the current filters can
// still reach. Target and keyword criteria are ignored here: the target
// picker is populated from the rows the other filters leave.
func (c *Controller) GetFilterOptions(ctx echo.Context) error {
	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		return c.handleDatasetError(ctx, err)
	}

	criteria, err := criteriaFromQuery(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid filter criteria", http.StatusBadRequest)
	}
	criteria.Targets = nil
	criteria.Keyword = ""
	rows := filter.Apply(ds.Rows, criteria)

	resp := FilterOptionsResponse{
		Instruments: dataset.InstrumentOptions(rows),
		Targets:     dataset.TargetOptions(rows),
	}
	for i := range rows {
		if rows[i].Year == nil {
			continue
		}
		year := *rows[i].Year
		if resp.YearMin == 0 || year < resp.YearMin {
			resp.YearMin = year
		}
		if year > resp.YearMax {
			resp.YearMax = year
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}

// ExportObservations streams the filtered rows as a CSV download.
func (c *Controller) ExportObservations(ctx echo.Context) error {
	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		return c.handleDatasetError(ctx, err)
	}

	criteria, err := criteriaFromQuery(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid filter criteria", http.StatusBadRequest)
	}

	rows := dataset.SortByTimestampDesc(filter.Apply(ds.Rows, criteria))
	data, err := ds.ExportCSV(rows)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to serialize observations", http.StatusInternalServerError)
	}

	filename := fmt.Sprintf("observations-%s.csv", time.Now().Format("20060102-150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, "text/csv", data)
}

// EditRequest carries cell edits keyed by row index and column name,
// with an optional write-back to the source file.
type EditRequest struct {
	Edits dataset.EditSet `json:"edits"`
	Save  bool            `json:"save"`
}

// EditObservations applies cell edits to a working copy of the dataset and
// optionally persists it back to the source file.
func (c *Controller) EditObservations(ctx echo.Context) error {
	var req EditRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid edit request", http.StatusBadRequest)
	}
	if len(req.Edits) == 0 {
		return c.HandleError(ctx, nil, "No edits provided", http.StatusBadRequest)
	}

	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		return c.handleDatasetError(ctx, err)
	}

	edited, err := ds.ApplyEdits(req.Edits)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			return c.HandleError(ctx, err, "Invalid edit", http.StatusBadRequest)
		}
		return c.HandleError(ctx, err, "Failed to apply edits", http.StatusInternalServerError)
	}

	if req.Save {
		if err := c.Loader.Save(edited, c.Settings.Dataset.Path); err != nil {
			return c.HandleError(ctx, err, "Failed to save dataset", http.StatusInternalServerError)
		}
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"rows":  len(edited.Rows),
		"saved": req.Save,
	})
}

// ReloadDataset invalidates the cached dataset so the next read picks up
// external changes to the source file.
func (c *Controller) ReloadDataset(ctx echo.Context) error {
	c.Loader.Invalidate(c.Settings.Dataset.Path)
	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		return c.handleDatasetError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"reloaded": true,
		"rows":     len(ds.Rows),
	})
}

// handleDatasetError maps dataset load failures to the right status code.
func (c *Controller) handleDatasetError(ctx echo.Context, err error) error {
	if errors.IsNotFound(err) {
		return c.HandleError(ctx, err, "Observation dataset not found", http.StatusNotFound)
	}
	return c.HandleError(ctx, err, "Failed to load observation dataset", http.StatusInternalServerError)
}

// criteriaFromQuery parses filter criteria from request query parameters.
func criteriaFromQuery(ctx echo.Context) (filter.Criteria, error) {
	criteria := filter.Criteria{
		TimeStart:      ctx.QueryParam("time_start"),
		TimeEnd:        ctx.QueryParam("time_end"),
		Keyword:        ctx.QueryParam("keyword"),
		InstrumentMode: filter.ParseMatchMode(ctx.QueryParam("instrument_mode")),
		Instruments:    splitParam(ctx.QueryParam("instruments")),
		Targets:        splitParam(ctx.QueryParam("targets")),
	}

	var err error
	if criteria.YearMin, err = intParam(ctx, "year_min"); err != nil {
		return criteria, err
	}
	if criteria.YearMax, err = intParam(ctx, "year_max"); err != nil {
		return criteria, err
	}
	if criteria.DateStart, err = dateParam(ctx, "date_start"); err != nil {
		return criteria, err
	}
	if criteria.DateEnd, err = dateParam(ctx, "date_end"); err != nil {
		return criteria, err
	}

	if raw := ctx.QueryParam("polarimetry"); raw != "" {
		mode, ok := filter.ParsePolarimetryMode(raw)
		if !ok {
			return criteria, errors.Newf("invalid polarimetry value %q, expected All, True or False", raw).
				Category(errors.CategoryValidation).
				Component("api").
				Build()
		}
		criteria.Polarimetry = mode
	}

	return criteria, nil
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(ctx echo.Context, name string) (*int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.Newf("invalid %s value %q", name, raw).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	return &v, nil
}

func dateParam(ctx echo.Context, name string) (*time.Time, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.Newf("invalid %s value %q, expected YYYY-MM-DD", name, raw).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	return &t, nil
}

func queryInt(ctx echo.Context, name string, fallback int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
