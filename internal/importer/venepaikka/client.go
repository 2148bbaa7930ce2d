// Package venepaikka imports harbors from the Helsinki berth registry
// (GraphQL) into the canonical feature catalog.
package venepaikka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultURL is the production berth registry GraphQL endpoint.
	DefaultURL = "https://api.hel.fi/berths/graphql_v2/"

	defaultTimeout = 10 * time.Second
)

// harborsQuery is the fixed query document sent on every fetch.
const harborsQuery = `
query Harbors {
  harbors {
    edges {
      node {
        id
        geometry {
          type
          coordinates
        }
        properties {
          name
          imageLink
          imageFile
          streetAddress
          zipCode
          municipality
          phone
          email
          servicemapId
          piers {
            edges {
              node {
                properties {
                  berthType {
                    mooringType
                    depth
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// Client fetches harbor documents from the berth registry.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the given GraphQL endpoint.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchHarbors posts the harbors query and returns the decoded JSON
// document. A non-2xx response is fatal for the call.
func (c *Client) FetchHarbors(ctx context.Context) (any, error) {
	body, err := json.Marshal(map[string]string{"query": harborsQuery})
	if err != nil {
		return nil, fmt.Errorf("encoding harbors query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating harbors request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching harbors: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching harbors: unexpected status %d", resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding harbors response: %w", err)
	}
	return doc, nil
}
