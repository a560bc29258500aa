// Package marketplace searches online listings for comparable cards.
//
// Searcher is the boundary the pipeline talks to. EbayClient implements it
// against the eBay Finding API; RateLimited and CachedSearcher decorate any
// Searcher with client-side throttling and a Redis-backed listing cache.
//
// Every failure surfaced by this package carries the SEARCH_FAILED code so
// callers can degrade to an empty listing set.
package marketplace

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ironsheep/card-scanner/internal/failure"
)

// DefaultLimit is the number of listings requested when the caller does not
// specify one.
const DefaultLimit = 5

// MaxLimit caps the page size sent to the marketplace.
const MaxLimit = 100

// Listing is one marketplace offer.
type Listing struct {
	Title string `json:"title"`
	Price string `json:"price"`
}

// Searcher finds listings for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Listing, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string, limit int) ([]Listing, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	return f(ctx, query, limit)
}

// normalizeLimit maps non-positive limits to DefaultLimit and caps large ones.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// Disabled is a Searcher that always fails; it stands in when no marketplace
// credentials are configured.
type Disabled struct {
	Reason string
}

// Search always returns a SEARCH_FAILED error.
func (d Disabled) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	reason := d.Reason
	if reason == "" {
		reason = "marketplace search is disabled"
	}
	return nil, failure.Newf(failure.SearchFailed, "%s", reason)
}

// RateLimited throttles calls to the wrapped Searcher.
type RateLimited struct {
	next    Searcher
	limiter *rate.Limiter
}

// NewRateLimited allows rps searches per second with a burst of one second's
// worth. A non-positive rps disables throttling.
func NewRateLimited(next Searcher, rps float64) *RateLimited {
	limit := rate.Limit(rps)
	burst := int(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Search waits for a token, then delegates. A context that ends while waiting
// is a search failure.
func (r *RateLimited) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, failure.New(failure.SearchFailed, "rate limit wait aborted", err)
	}
	return r.next.Search(ctx, query, limit)
}

func searchFailed(format string, err error, args ...interface{}) *failure.Error {
	return failure.New(failure.SearchFailed, fmt.Sprintf(format, args...), err)
}
