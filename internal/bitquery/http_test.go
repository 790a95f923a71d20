package bitquery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryPostsGraphQLDocument(t *testing.T) {
	var gotAuth string
	var gotBody graphqlRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok123")
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.Query(context.Background(), "query { ok }", &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "query { ok }", gotBody.Query)
	assert.True(t, out.OK)
}

func TestQuerySurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"field not found"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	err := c.Query(context.Background(), "query { nope }", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field not found")
}

func TestQuerySurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	err := c.Query(context.Background(), "query { ok }", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchFinalStretchDecodesPools(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req.Query
		_, _ = w.Write([]byte(`{"data":{"Solana":{"DEXPools":[
			{"Block":{"Time":"2025-06-01T12:00:00Z"},
			 "Pool":{"Market":{"BaseCurrency":{"MintAddress":"somepump","Symbol":"STR"}},
			         "Base":{"PostAmount":"210000000"},
			         "Quote":{"PriceInUSD":0.0001}}}
		]}}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	pools, err := c.FetchFinalStretch(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, pools, 1)

	assert.Equal(t, "somepump", pools[0].Pool.Market.BaseCurrency.MintAddress)
	assert.Equal(t, "210000000", pools[0].Pool.Base.PostAmount)
	assert.Equal(t, 0.0001, pools[0].Pool.Quote.PriceInUSD)
	// The bulk variant is a query with an explicit limit, not a subscription.
	assert.True(t, strings.HasPrefix(strings.TrimSpace(gotQuery), "query"))
	assert.Contains(t, gotQuery, "50")
}

func TestFetchNewTokensDecodesSupplyUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Solana":{"TokenSupplyUpdates":[
			{"Block":{"Time":"2025-06-01T12:00:00Z"},
			 "TokenSupplyUpdate":{"Currency":{"MintAddress":"mintpump","Name":"Tok","Symbol":"TK","Uri":"https://x/t.json"}}}
		]}}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	events, err := c.FetchNewTokens(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, events, 1)

	cur := events[0].TokenSupplyUpdate.Currency
	assert.Equal(t, "mintpump", cur.MintAddress)
	assert.Equal(t, "Tok", cur.Name)
	assert.Equal(t, "https://x/t.json", cur.URI)
}
