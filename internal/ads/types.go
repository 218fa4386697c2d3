// Package ads provides a client for the NASA ADS literature search API,
// used to find publications covering an observing day.
package ads

import "time"

// Paper is one publication hit returned by a search.
type Paper struct {
	Title       string `json:"title"`
	Bibcode     string `json:"bibcode"`
	FirstAuthor string `json:"first_author"`
	Year        string `json:"year"`
	URL         string `json:"url"`
}

// searchResponse mirrors the relevant part of the ADS JSON response.
type searchResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			ID      string   `json:"id"`
			Title   []string `json:"title"`
			Bibcode string   `json:"bibcode"`
			Author  []string `json:"author"`
			Year    string   `json:"year"`
		} `json:"docs"`
	} `json:"response"`
}

// Config holds configuration for the ADS client.
type Config struct {
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url"`
	Timeout     time.Duration `json:"timeout"`
	CacheTTL    time.Duration `json:"cache_ttl"`
	RateLimitMS int           `json:"rate_limit_ms"` // Milliseconds between requests
	MaxRows     int           `json:"max_rows"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.adsabs.harvard.edu/v1/search/query",
		Timeout:     30 * time.Second,
		CacheTTL:    time.Hour,
		RateLimitMS: 200,
		MaxRows:     100,
	}
}

// abstractBaseURL is where a bibcode resolves to a human-readable page.
const abstractBaseURL = "https://ui.adsabs.harvard.edu/abs/"
