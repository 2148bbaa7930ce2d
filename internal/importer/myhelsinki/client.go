// Package myhelsinki imports places from the MyHelsinki Open API
// (REST) into the canonical feature catalog.
package myhelsinki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ahti-platform/ahti/internal/config"
	"github.com/ahti-platform/ahti/internal/importer"
)

const (
	// DefaultBaseURL is the production MyHelsinki Open API endpoint.
	DefaultBaseURL = "http://open-api.myhelsinki.fi"

	placesPath = "/v1/places/"

	defaultTimeout = 10 * time.Second
)

// Client fetches place documents from the MyHelsinki Open API.
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewClient creates a client for the given API endpoint. The language
// is sent as language_filter on every call.
func NewClient(baseURL, language string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchPlaces performs one GET against the places listing with the
// given query parameters and returns the decoded JSON document.
// A non-2xx response is fatal for the call.
func (c *Client) FetchPlaces(ctx context.Context, call config.APICall) (any, error) {
	params := url.Values{}
	params.Set("language_filter", c.language)
	for key, value := range call {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				params.Add(key, importer.AsString(item))
			}
		case []string:
			for _, item := range v {
				params.Add(key, item)
			}
		default:
			params.Add(key, importer.AsString(v))
		}
	}

	reqURL := c.baseURL + placesPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating places request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching places: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching places: unexpected status %d", resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding places response: %w", err)
	}
	return doc, nil
}
