package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/card-scanner/internal/failure"
)

const pikachuResponse = `{
  "findItemsByKeywordsResponse": [{
    "ack": ["Success"],
    "searchResult": [{
      "@count": "3",
      "item": [
        {"title": ["Pikachu Base Set 58/102"], "sellingStatus": [{"currentPrice": [{"@currencyId": "USD", "__value__": "12.5"}]}]},
        {"title": ["Pikachu Red Cheeks"], "sellingStatus": [{"currentPrice": [{"@currencyId": "USD", "__value__": "80.0"}]}]},
        {"sellingStatus": [{"currentPrice": [{"__value__": "1.0"}]}]},
        {"title": ["Pikachu lot"]}
      ]
    }]
  }]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *EbayClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEbayClient(EbayOptions{AppID: "test-app", Endpoint: srv.URL, Timeout: 2 * time.Second})
}

func TestEbayClient_Search(t *testing.T) {
	var got http.Header
	var params map[string]string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header
		params = map[string]string{}
		for k := range r.URL.Query() {
			params[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pikachuResponse))
	})

	listings, err := client.Search(context.Background(), "  Pikachu   base ", 5)
	require.NoError(t, err)
	require.Equal(t, []Listing{
		{Title: "Pikachu Base Set 58/102", Price: "12.5"},
		{Title: "Pikachu Red Cheeks", Price: "80.0"},
		{Title: "Pikachu lot", Price: ""},
	}, listings)

	require.Equal(t, "findItemsByKeywords", params["OPERATION-NAME"])
	require.Equal(t, "test-app", params["SECURITY-APPNAME"])
	require.Equal(t, "JSON", params["RESPONSE-DATA-FORMAT"])
	require.Equal(t, "Pikachu base", params["keywords"])
	require.Equal(t, "5", params["paginationInput.entriesPerPage"])
	require.Equal(t, "application/json", got.Get("Accept"))
}

func TestEbayClient_LimitTruncates(t *testing.T) {
	var perPage string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("paginationInput.entriesPerPage")
		w.Write([]byte(pikachuResponse))
	})

	listings, err := client.Search(context.Background(), "Pikachu", 1)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, "1", perPage)
}

func TestEbayClient_DefaultLimit(t *testing.T) {
	var perPage string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("paginationInput.entriesPerPage")
		w.Write([]byte(pikachuResponse))
	})

	_, err := client.Search(context.Background(), "Pikachu", 0)
	require.NoError(t, err)
	require.Equal(t, "5", perPage)
}

func TestEbayClient_EmptyResults(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"findItemsByKeywordsResponse": []}`,
		`{"findItemsByKeywordsResponse": [{"searchResult": []}]}`,
		`{"findItemsByKeywordsResponse": [{"searchResult": [{"@count": "0"}]}]}`,
	}

	for _, body := range bodies {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		listings, err := client.Search(context.Background(), "nothing", 5)
		require.NoError(t, err, body)
		require.NotNil(t, listings, body)
		require.Empty(t, listings, body)
	}
}

func TestEbayClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>maintenance</html>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.handler)
			listings, err := client.Search(context.Background(), "Pikachu", 5)
			require.Error(t, err)
			require.Nil(t, listings)
			require.True(t, failure.HasCode(err, failure.SearchFailed), "got %v", err)
		})
	}
}

func TestEbayClient_StatusDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Search(context.Background(), "Pikachu", 5)
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusServiceUnavailable, fe.Details["status"])
}

func TestEbayClient_Timeout(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "Pikachu", 5)
	require.True(t, failure.HasCode(err, failure.SearchFailed))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEbayClient_EmptyQuery(t *testing.T) {
	called := false
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Search(context.Background(), "   ", 5)
	require.True(t, failure.HasCode(err, failure.SearchFailed))
	require.False(t, called, "empty query must not reach the network")
}

func TestEbayClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := NewEbayClient(EbayOptions{AppID: "x", Endpoint: endpoint, Timeout: time.Second})
	_, err := client.Search(context.Background(), "Pikachu", 5)
	require.True(t, failure.HasCode(err, failure.SearchFailed))
}
