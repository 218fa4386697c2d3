package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lapalma/sunscan-go/internal/ads"
	"github.com/lapalma/sunscan-go/internal/errors"
)

// initLiteratureRoutes registers the literature search endpoints.
func (c *Controller) initLiteratureRoutes() {
	literatureGroup := c.Group.Group("/literature")
	literatureGroup.GET("/search", c.SearchLiterature)
	literatureGroup.GET("/observation/:row", c.SearchObservationLiterature)
}

// LiteratureResponse is the literature search response body.
type LiteratureResponse struct {
	Query  string      `json:"query"`
	Papers []ads.Paper `json:"papers"`
}

// SearchLiterature proxies a raw query to the ADS search API.
func (c *Controller) SearchLiterature(ctx echo.Context) error {
	if c.ADSClient == nil {
		return c.HandleError(ctx, nil, "Literature search is not configured, set an ADS API key", http.StatusServiceUnavailable)
	}

	query := ctx.QueryParam("q")
	if query == "" {
		return c.HandleError(ctx, nil, "Missing query parameter q", http.StatusBadRequest)
	}
	rows := queryInt(ctx, "rows", 0)

	papers, err := c.ADSClient.SearchAdvanced(ctx.Request().Context(), query, rows, ctx.QueryParam("sort"))
	if err != nil {
		return c.handleSearchError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, LiteratureResponse{Query: query, Papers: papers})
}

// SearchObservationLiterature finds publications covering one observation,
// searching on the telescope, its instruments and the observing date.
func (c *Controller) SearchObservationLiterature(ctx echo.Context) error {
	if c.ADSClient == nil {
		return c.HandleError(ctx, nil, "Literature search is not configured, set an ADS API key", http.StatusServiceUnavailable)
	}

	row, err := strconv.Atoi(ctx.Param("row"))
	if err != nil {
		return c.HandleError(ctx, err, "Invalid row index", http.StatusBadRequest)
	}

	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		return c.handleDatasetError(ctx, err)
	}
	if row < 0 || row >= len(ds.Rows) {
		return c.HandleError(ctx, nil, "Row index out of range", http.StatusNotFound)
	}

	obs := &ds.Rows[row]
	terms := ads.BuildTerms(obs.Instruments, obs.Timestamp)
	papers, err := c.ADSClient.Search(ctx.Request().Context(), terms, queryInt(ctx, "rows", 0))
	if err != nil {
		return c.handleSearchError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, LiteratureResponse{
		Query:  ads.BuildQuery(terms),
		Papers: papers,
	})
}

// handleSearchError maps ADS client failures to response codes. Auth
// problems surface as a configuration hint rather than a bare 500.
func (c *Controller) handleSearchError(ctx echo.Context, err error) error {
	switch {
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return c.HandleError(ctx, err, "Literature search authentication failed, check the ADS API key", http.StatusBadGateway)
	case errors.IsCategory(err, errors.CategoryValidation):
		return c.HandleError(ctx, err, "Invalid literature query", http.StatusBadRequest)
	case errors.IsCategory(err, errors.CategoryLimit):
		return c.HandleError(ctx, err, "Literature search rate limit exceeded", http.StatusTooManyRequests)
	default:
		return c.HandleError(ctx, err, "Literature search failed", http.StatusBadGateway)
	}
}
