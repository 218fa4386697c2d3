package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lapalma/sunscan-go/internal/conf"
	"github.com/lapalma/sunscan-go/internal/errors"
	"github.com/lapalma/sunscan-go/internal/logging"
)

// Package-level logger specific to the ADS service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "ads.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "ads", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize ads file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "ads")
		closeLogger = func() error { return nil }
	}
}

// defaultSort orders hits newest first, the useful order when checking
// whether an observing run has been published yet.
const defaultSort = "date desc"

// returnedFields is the fixed field list requested from the API.
const returnedFields = "id,title,bibcode,author,year"

// Client provides access to the ADS search API with response caching and
// request rate limiting.
type Client struct {
	config        Config
	httpClient    *http.Client
	cache         *cache.Cache
	rateLimiter   *time.Ticker
	mu            sync.Mutex
	lastRequest   time.Time
	debug         bool
	firstCallOnce sync.Once
}

// NewClient creates an ADS API client. The API key is mandatory, every
// other config value falls back to its default.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("ADS API key is required, set ads.apikey or the ADS_DEV_KEY environment variable").
			Category(errors.CategoryConfiguration).
			Component("ads").
			Build()
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RateLimitMS == 0 {
		config.RateLimitMS = defaults.RateLimitMS
	}
	if config.MaxRows == 0 {
		config.MaxRows = defaults.MaxRows
	}

	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:       cache.New(config.CacheTTL, config.CacheTTL*2),
		rateLimiter: time.NewTicker(time.Duration(config.RateLimitMS) * time.Millisecond),
		debug:       debug,
	}

	logger.Info("ADS client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_ms", config.RateLimitMS,
		"max_rows", config.MaxRows,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// ConfigFromSettings maps the application settings onto a client Config.
func ConfigFromSettings(s *conf.ADSSettings) Config {
	return Config{
		APIKey:      s.APIKey,
		BaseURL:     s.BaseURL,
		Timeout:     time.Duration(s.Timeout) * time.Second,
		CacheTTL:    time.Duration(s.CacheTTL) * time.Minute,
		RateLimitMS: s.RateLimitMS,
		MaxRows:     s.MaxRows,
	}
}

// Close cleans up client resources.
func (c *Client) Close() {
	c.rateLimiter.Stop()
	logger.Info("Closing ADS client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing ads logger: %v", err)
		}
	}
}

// Search finds publications matching all the given full-text terms,
// newest first. Results are cached per query.
func (c *Client) Search(ctx context.Context, terms []string, rows int) ([]Paper, error) {
	return c.SearchAdvanced(ctx, BuildQuery(terms), rows, defaultSort)
}

// SearchAdvanced runs a raw ADS query string with an explicit sort order.
func (c *Client) SearchAdvanced(ctx context.Context, query string, rows int, sort string) ([]Paper, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Newf("search query is empty").
			Category(errors.CategoryValidation).
			Component("ads").
			Build()
	}
	if rows <= 0 || rows > c.config.MaxRows {
		rows = c.config.MaxRows
	}
	if sort == "" {
		sort = defaultSort
	}

	cacheKey := fmt.Sprintf("search:%s:%d:%s", query, rows, sort)
	if cached, found := c.cache.Get(cacheKey); found {
		if papers, ok := cached.([]Paper); ok {
			logger.Debug("ADS search cache hit", "cache_key", cacheKey, "hits", len(papers))
			return papers, nil
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("fl", returnedFields)
	params.Set("rows", fmt.Sprintf("%d", rows))
	params.Set("sort", sort)
	requestURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	var parsed searchResponse
	if err := c.doRequest(reqCtx, requestURL, &parsed); err != nil {
		return nil, err
	}

	papers := make([]Paper, 0, len(parsed.Response.Docs))
	for _, doc := range parsed.Response.Docs {
		paper := Paper{
			Bibcode: doc.Bibcode,
			Year:    doc.Year,
		}
		if len(doc.Title) > 0 {
			paper.Title = doc.Title[0]
		}
		if len(doc.Author) > 0 {
			paper.FirstAuthor = doc.Author[0]
		}
		if doc.Bibcode != "" {
			paper.URL = abstractBaseURL + doc.Bibcode
		}
		papers = append(papers, paper)
	}

	c.cache.Set(cacheKey, papers, cache.DefaultExpiration)
	logger.Debug("ADS search cached",
		"cache_key", cacheKey,
		"num_found", parsed.Response.NumFound,
		"returned", len(papers))

	return papers, nil
}

// doRequest performs one rate-limited, authenticated GET against the API.
func (c *Client) doRequest(ctx context.Context, requestURL string, result any) error {
	c.mu.Lock()
	select {
	case <-c.rateLimiter.C:
	case <-ctx.Done():
		c.mu.Unlock()
		return ctx.Err()
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("ads").
			Build()
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	if c.debug {
		logger.Debug("ADS API request", "url", requestURL, "has_api_key", c.config.APIKey != "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("ADS API request failed", "error", err, "url", requestURL)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("ads").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Context("status_code", resp.StatusCode).
			Component("ads").
			Build()
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Error("ADS API authentication failed",
				"status_code", resp.StatusCode,
				"url", requestURL,
				"has_api_key", c.config.APIKey != "",
				"message", "Check your ADS API key in the configuration")
			return errors.Newf("ADS API authentication failed (status %d), check your API key", resp.StatusCode).
				Category(errors.CategoryConfiguration).
				Context("status_code", resp.StatusCode).
				Context("url", requestURL).
				Component("ads").
				Build()
		}
		logger.Warn("ADS API error response",
			"status_code", resp.StatusCode,
			"url", requestURL)
		return errors.Newf("ADS API error (status %d): %s", resp.StatusCode, truncate(string(bodyBytes), 500)).
			Category(statusCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", requestURL).
			Component("ads").
			Build()
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			logger.Error("Failed to parse ADS API response",
				"error", err,
				"url", requestURL,
				"response_size", len(bodyBytes),
				"response_preview", truncate(string(bodyBytes), 500))
			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryFileParsing).
				Context("url", requestURL).
				Component("ads").
				Build()
		}
	}

	c.firstCallOnce.Do(func() {
		logger.Info("ADS API authentication successful", "first_successful_request", requestURL)
	})
	logger.Info("ADS API request successful",
		"url", requestURL,
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// ClearCache drops all cached search results.
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("ADS cache cleared")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// statusCategory maps an HTTP status code to the error category surfaced
// to the user.
func statusCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}
