package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lapalma/sunscan-go/internal/dataset"
	"github.com/lapalma/sunscan-go/internal/filter"
	"github.com/lapalma/sunscan-go/internal/stats"
)

// initAnalyticsRoutes registers the analytics endpoints. Each endpoint
// accepts the same filter query parameters as the observations endpoint,
// so charts follow the active filters.
func (c *Controller) initAnalyticsRoutes() {
	analyticsGroup := c.Group.Group("/analytics")
	analyticsGroup.GET("/summary", c.GetSummary)
	analyticsGroup.GET("/yearly", c.GetYearlyCounts)
	analyticsGroup.GET("/heatmap", c.GetHeatmap)
}

// GetSummary returns the headline figures for the filtered dataset.
func (c *Controller) GetSummary(ctx echo.Context) error {
	rows, ok := c.filteredRows(ctx)
	if !ok {
		return nil
	}
	return ctx.JSON(http.StatusOK, stats.Summarize(rows))
}

// GetYearlyCounts returns observation counts per (year, instrument) for
// time-series charting.
func (c *Controller) GetYearlyCounts(ctx echo.Context) error {
	rows, ok := c.filteredRows(ctx)
	if !ok {
		return nil
	}
	return ctx.JSON(http.StatusOK, stats.YearInstrumentCounts(rows))
}

// GetHeatmap returns the year-by-month count table with its color scale
// endpoints.
func (c *Controller) GetHeatmap(ctx echo.Context) error {
	rows, ok := c.filteredRows(ctx)
	if !ok {
		return nil
	}
	return ctx.JSON(http.StatusOK, stats.YearMonthCounts(rows))
}

// filteredRows loads the dataset and applies the request's filter criteria.
// When ok is false the error response has already been written.
func (c *Controller) filteredRows(ctx echo.Context) (rows []dataset.Observation, ok bool) {
	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		_ = c.handleDatasetError(ctx, err)
		return nil, false
	}
	criteria, err := criteriaFromQuery(ctx)
	if err != nil {
		_ = c.HandleError(ctx, err, "Invalid filter criteria", http.StatusBadRequest)
		return nil, false
	}
	return filter.Apply(ds.Rows, criteria), true
}
