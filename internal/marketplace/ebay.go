package marketplace

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultEbayEndpoint is the eBay Finding API service URL.
const DefaultEbayEndpoint = "https://svcs.ebay.com/services/search/FindingService/v1"

// EbayClient searches eBay with the findItemsByKeywords operation.
type EbayClient struct {
	appID    string
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// EbayOptions configures an EbayClient.
type EbayOptions struct {
	// AppID is the eBay developer application ID (SECURITY-APPNAME).
	AppID string

	// Endpoint overrides DefaultEbayEndpoint.
	Endpoint string

	// Timeout bounds each HTTP request. Zero means 10s.
	Timeout time.Duration

	// HTTPClient replaces the default client; Timeout is then ignored.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewEbayClient creates an eBay Finding API client.
func NewEbayClient(opts EbayOptions) *EbayClient {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEbayEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &EbayClient{
		appID:    opts.AppID,
		endpoint: endpoint,
		http:     client,
		logger:   logger,
	}
}

// findingResponse mirrors the parts of the Finding API JSON we read. Every
// level of the document is wrapped in a single-element array.
type findingResponse struct {
	FindItemsByKeywordsResponse []struct {
		Ack          []string `json:"ack"`
		SearchResult []struct {
			Item []struct {
				Title         []string `json:"title"`
				SellingStatus []struct {
					CurrentPrice []struct {
						CurrencyID string `json:"@currencyId"`
						Value      string `json:"__value__"`
					} `json:"currentPrice"`
				} `json:"sellingStatus"`
			} `json:"item"`
		} `json:"searchResult"`
	} `json:"findItemsByKeywordsResponse"`
}

// Search returns up to limit listings for query.
func (c *EbayClient) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	query = normalizeQuery(query)
	if query == "" {
		return nil, searchFailed("empty query", nil)
	}
	limit = normalizeLimit(limit)

	params := url.Values{}
	params.Set("OPERATION-NAME", "findItemsByKeywords")
	params.Set("SERVICE-VERSION", "1.0.0")
	params.Set("SECURITY-APPNAME", c.appID)
	params.Set("RESPONSE-DATA-FORMAT", "JSON")
	params.Set("keywords", query)
	params.Set("paginationInput.entriesPerPage", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, searchFailed("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, searchFailed("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("ebay search failed", "status", resp.StatusCode, "query", query, "body", string(body))
		return nil, searchFailed("ebay returned status %d", nil, resp.StatusCode).
			With("status", resp.StatusCode).
			With("body", string(body))
	}

	var doc findingResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, searchFailed("failed to decode response", err)
	}

	listings := extractListings(doc, limit)
	c.logger.Debug("ebay search", "query", query, "results", len(listings), "duration", time.Since(start))
	return listings, nil
}

// extractListings flattens the response, skipping items without a title.
// A missing price is reported as an empty string.
func extractListings(doc findingResponse, limit int) []Listing {
	out := []Listing{}
	if len(doc.FindItemsByKeywordsResponse) == 0 {
		return out
	}
	results := doc.FindItemsByKeywordsResponse[0].SearchResult
	if len(results) == 0 {
		return out
	}

	for _, item := range results[0].Item {
		if len(item.Title) == 0 {
			continue
		}
		l := Listing{Title: item.Title[0]}
		if len(item.SellingStatus) > 0 && len(item.SellingStatus[0].CurrentPrice) > 0 {
			l.Price = item.SellingStatus[0].CurrentPrice[0].Value
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out
}
