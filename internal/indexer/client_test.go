package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/suimigrate/migrate-backend/internal/metrics"
)

const testCoinType = "0xabc123::old_coin::OLD_COIN"

// mockGraphQLHandler returns the given raw `data` payload and records the variables of the request it served.
func mockGraphQLHandler(t *testing.T, data string, gotVariables *map[string]interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req GraphQLRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Contains(t, req.Query, "query CoinObjects")
		if gotVariables != nil {
			*gotVariables = req.Variables
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":` + data + `}`)) //nolint:errcheck // test code
	}
}

func mockGraphQLErrorHandler(messages ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := GraphQLResponse{}
		for _, msg := range messages {
			response.Errors = append(response.Errors, GraphQLError{Message: msg})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test code
	}
}

func mockHTTPErrorHandler(statusCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte("upstream unavailable")) //nolint:errcheck // test code
	}
}

func createTestClient(t *testing.T, handler http.HandlerFunc) (*GraphQLClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client, err := NewGraphQLClient(server.URL, server.Client(), metrics.NewMetricsService(nil))
	require.NoError(t, err)
	return client, server
}

func TestNewGraphQLClient(t *testing.T) {
	ms := metrics.NewMockMetricsService()

	_, err := NewGraphQLClient("", nil, ms)
	assert.EqualError(t, err, "indexer URL cannot be empty")

	_, err = NewGraphQLClient(DefaultURL, nil, nil)
	assert.EqualError(t, err, "metrics service cannot be nil")

	client, err := NewGraphQLClient(DefaultURL, nil, ms)
	require.NoError(t, err)
	require.NotNil(t, client.HTTPClient)
	assert.Equal(t, defaultHTTPTimeout, client.HTTPClient.Timeout)
}

func TestGraphQLClient_FetchCoinObjects(t *testing.T) {
	ctx := context.Background()

	t.Run("🟢first_page_with_metadata", func(t *testing.T) {
		var gotVariables map[string]interface{}
		data := `{
			"coinMetadata": {"name": "Old Coin", "symbol": "OLD", "decimals": 9},
			"objects": {
				"pageInfo": {"hasNextPage": true, "endCursor": "cursor-1"},
				"nodes": [
					{"owner": {"__typename": "AddressOwner", "address": {"address": "0xa"}}, "asMoveObject": {"contents": {"json": {"id": "0x1", "balance": "100"}}}},
					{"owner": {"__typename": "ObjectOwner", "address": {"address": "0xb"}}, "asMoveObject": {"contents": {"json": {"balance": "7"}}}},
					{"owner": {"__typename": "Shared"}, "asMoveObject": {"contents": {"json": {"balance": "5"}}}}
				]
			}
		}`
		client, server := createTestClient(t, mockGraphQLHandler(t, data, &gotVariables))
		defer server.Close()

		page, err := client.FetchCoinObjects(ctx, testCoinType, nil)
		require.NoError(t, err)

		assert.Equal(t, "0x2::coin::Coin<"+testCoinType+">", gotVariables["type"])
		assert.Equal(t, testCoinType, gotVariables["coinType"])
		assert.Nil(t, gotVariables["cursor"])

		assert.True(t, page.HasNextPage)
		require.NotNil(t, page.EndCursor)
		assert.Equal(t, "cursor-1", *page.EndCursor)
		require.NotNil(t, page.Metadata)
		assert.Equal(t, "Old Coin", page.Metadata.Name)
		assert.Equal(t, "OLD", page.Metadata.Symbol)
		require.NotNil(t, page.Metadata.Decimals)
		assert.Equal(t, 9, *page.Metadata.Decimals)

		require.Len(t, page.Nodes, 3)
		assert.Equal(t, AddressOwner{Address: "0xa"}, page.Nodes[0].Owner)
		assert.Equal(t, ObjectOwner{Address: "0xb"}, page.Nodes[1].Owner)
		assert.Equal(t, UnknownOwner{TypeName: "Shared"}, page.Nodes[2].Owner)
		assert.JSONEq(t, `{"id": "0x1", "balance": "100"}`, string(page.Nodes[0].Contents))
	})

	t.Run("🟢cursor_is_forwarded", func(t *testing.T) {
		var gotVariables map[string]interface{}
		data := `{"coinMetadata": null, "objects": {"pageInfo": {"hasNextPage": false, "endCursor": null}, "nodes": []}}`
		client, server := createTestClient(t, mockGraphQLHandler(t, data, &gotVariables))
		defer server.Close()

		cursor := "cursor-7"
		page, err := client.FetchCoinObjects(ctx, testCoinType, &cursor)
		require.NoError(t, err)

		assert.Equal(t, "cursor-7", gotVariables["cursor"])
		assert.False(t, page.HasNextPage)
		assert.Nil(t, page.EndCursor)
		assert.Nil(t, page.Metadata)
		assert.Empty(t, page.Nodes)
	})

	t.Run("🟢missing_objects_ends_pagination", func(t *testing.T) {
		data := `{"coinMetadata": {"name": "Old Coin", "symbol": "OLD", "decimals": 9}}`
		client, server := createTestClient(t, mockGraphQLHandler(t, data, nil))
		defer server.Close()

		page, err := client.FetchCoinObjects(ctx, testCoinType, nil)
		require.NoError(t, err)
		assert.False(t, page.HasNextPage)
		assert.Empty(t, page.Nodes)
		require.NotNil(t, page.Metadata)
		assert.Equal(t, "Old Coin", page.Metadata.Name)
	})

	t.Run("🟢null_data_ends_pagination", func(t *testing.T) {
		client, server := createTestClient(t, mockGraphQLHandler(t, `null`, nil))
		defer server.Close()

		page, err := client.FetchCoinObjects(ctx, testCoinType, nil)
		require.NoError(t, err)
		assert.False(t, page.HasNextPage)
		assert.Nil(t, page.Metadata)
	})

	t.Run("🔴non_2xx_is_a_transport_error", func(t *testing.T) {
		client, server := createTestClient(t, mockHTTPErrorHandler(http.StatusBadGateway))
		defer server.Close()

		page, err := client.FetchCoinObjects(ctx, testCoinType, nil)
		require.Error(t, err)
		assert.Nil(t, page)

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
		assert.Equal(t, "upstream unavailable", transportErr.Body)
		assert.Equal(t, "Sui GraphQL error: 502", err.Error())
	})

	t.Run("🔴graphql_errors_are_a_query_error", func(t *testing.T) {
		client, server := createTestClient(t, mockGraphQLErrorHandler("unknown type", "rate limited"))
		defer server.Close()

		page, err := client.FetchCoinObjects(ctx, testCoinType, nil)
		require.Error(t, err)
		assert.Nil(t, page)

		var queryErr *QueryError
		require.ErrorAs(t, err, &queryErr)
		assert.Equal(t, []string{"unknown type", "rate limited"}, queryErr.Messages)
		assert.Equal(t, "GraphQL Query Error: unknown type", err.Error())
	})

	t.Run("🔴invalid_json_body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json")) //nolint:errcheck // test code
		}))
		defer server.Close()
		client, err := NewGraphQLClient(server.URL, server.Client(), metrics.NewMetricsService(nil))
		require.NoError(t, err)

		_, err = client.FetchCoinObjects(ctx, testCoinType, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing GraphQL response body")
	})

	t.Run("🔴canceled_context", func(t *testing.T) {
		client, server := createTestClient(t, mockGraphQLHandler(t, `null`, nil))
		defer server.Close()

		canceledCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := client.FetchCoinObjects(canceledCtx, testCoinType, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGraphQLClient_FetchCoinObjects_metrics(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(mockGraphQLHandler(t, `null`, nil))
		defer server.Close()

		mockMetricsService := metrics.NewMockMetricsService()
		mockMetricsService.On("IncRPCMethodCalls", "CoinObjects").Once()
		mockMetricsService.On("ObserveRPCMethodDuration", "CoinObjects", mock.AnythingOfType("float64")).Once()
		defer mockMetricsService.AssertExpectations(t)

		client, err := NewGraphQLClient(server.URL, server.Client(), mockMetricsService)
		require.NoError(t, err)

		_, err = client.FetchCoinObjects(context.Background(), testCoinType, nil)
		require.NoError(t, err)
	})

	t.Run("transport_error", func(t *testing.T) {
		server := httptest.NewServer(mockHTTPErrorHandler(http.StatusInternalServerError))
		defer server.Close()

		mockMetricsService := metrics.NewMockMetricsService()
		mockMetricsService.On("IncRPCMethodCalls", "CoinObjects").Once()
		mockMetricsService.On("ObserveRPCMethodDuration", "CoinObjects", mock.AnythingOfType("float64")).Once()
		mockMetricsService.On("IncRPCMethodErrors", "CoinObjects", "transport_error").Once()
		defer mockMetricsService.AssertExpectations(t)

		client, err := NewGraphQLClient(server.URL, server.Client(), mockMetricsService)
		require.NoError(t, err)

		_, err = client.FetchCoinObjects(context.Background(), testCoinType, nil)
		require.Error(t, err)
	})
}

func TestCoinObjectType(t *testing.T) {
	assert.Equal(t, "0x2::coin::Coin<0x2::sui::SUI>", CoinObjectType("0x2::sui::SUI"))
}
