package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/suimigrate/migrate-backend/internal/metrics"
	"github.com/suimigrate/migrate-backend/internal/utils"
)

const (
	// PageSize is the number of coin objects requested per indexer call.
	PageSize = 50
	// DefaultURL is the public Sui testnet GraphQL endpoint.
	DefaultURL = "https://graphql.testnet.sui.io/graphql"

	defaultHTTPTimeout = 30 * time.Second
)

const coinObjectsQuery = `
	query CoinObjects($type: String!, $coinType: String!, $cursor: String) {
		coinMetadata(coinType: $coinType) {
			name
			symbol
			decimals
		}
		objects(filter: { type: $type }, first: 50, after: $cursor) {
			pageInfo {
				hasNextPage
				endCursor
			}
			nodes {
				owner {
					__typename
					... on AddressOwner {
						address {
							address
						}
					}
					... on ObjectOwner {
						address {
							address
						}
					}
				}
				asMoveObject {
					contents {
						json
					}
				}
			}
		}
	}
`

// coinObjectsOperation is the operation name of coinObjectsQuery, used as the metrics method label.
var coinObjectsOperation = mustOperationName(coinObjectsQuery)

func mustOperationName(query string) string {
	doc, err := parser.ParseQuery(&ast.Source{Name: "coin_objects", Input: query})
	if err != nil {
		panic(fmt.Sprintf("parsing indexer query: %v", err))
	}
	if len(doc.Operations) != 1 || doc.Operations[0].Name == "" {
		panic("indexer query must contain exactly one named operation")
	}
	return doc.Operations[0].Name
}

// Client fetches coin objects of a coin type from the indexer, one page per call.
type Client interface {
	FetchCoinObjects(ctx context.Context, coinType string, cursor *string) (*CoinObjectsPage, error)
}

type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type GraphQLResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

type GraphQLError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

type GraphQLClient struct {
	HTTPClient     *http.Client
	URL            string
	MetricsService metrics.MetricsService
}

var _ Client = (*GraphQLClient)(nil)

func NewGraphQLClient(url string, httpClient *http.Client, metricsService metrics.MetricsService) (*GraphQLClient, error) {
	if url == "" {
		return nil, errors.New("indexer URL cannot be empty")
	}
	if metricsService == nil {
		return nil, errors.New("metrics service cannot be nil")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &GraphQLClient{
		HTTPClient:     httpClient,
		URL:            url,
		MetricsService: metricsService,
	}, nil
}

// CoinObjectType returns the Move type of the coin objects holding coinType.
func CoinObjectType(coinType string) string {
	return fmt.Sprintf("0x2::coin::Coin<%s>", coinType)
}

// FetchCoinObjects performs a single request and never retries. A response without an `objects` field yields an
// empty last page.
func (c *GraphQLClient) FetchCoinObjects(ctx context.Context, coinType string, cursor *string) (*CoinObjectsPage, error) {
	start := time.Now()
	c.MetricsService.IncRPCMethodCalls(coinObjectsOperation)
	defer func() {
		c.MetricsService.ObserveRPCMethodDuration(coinObjectsOperation, time.Since(start).Seconds())
	}()

	page, err := c.fetchCoinObjects(ctx, coinType, cursor)
	if err != nil {
		c.MetricsService.IncRPCMethodErrors(coinObjectsOperation, errorType(err))
		return nil, err
	}
	return page, nil
}

func (c *GraphQLClient) fetchCoinObjects(ctx context.Context, coinType string, cursor *string) (*CoinObjectsPage, error) {
	gqlRequest := GraphQLRequest{
		Query: coinObjectsQuery,
		Variables: map[string]interface{}{
			"type":     CoinObjectType(coinType),
			"coinType": coinType,
			"cursor":   cursor,
		},
	}

	resp, err := c.request(ctx, gqlRequest)
	if err != nil {
		return nil, fmt.Errorf("calling indexer: %w", err)
	}

	if isHTTPError(resp) {
		return nil, transportError(ctx, resp)
	}

	gqlResponse, err := parseResponseBody[GraphQLResponse](ctx, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing GraphQL response body: %w", err)
	}

	if len(gqlResponse.Errors) > 0 {
		messages := make([]string, 0, len(gqlResponse.Errors))
		for _, gqlErr := range gqlResponse.Errors {
			messages = append(messages, gqlErr.Message)
		}
		return nil, &QueryError{Messages: messages}
	}

	var data coinObjectsData
	if len(gqlResponse.Data) > 0 && !bytes.Equal(gqlResponse.Data, []byte("null")) {
		if err := json.Unmarshal(gqlResponse.Data, &data); err != nil {
			return nil, fmt.Errorf("unmarshaling GraphQL data: %w", err)
		}
	}

	page := &CoinObjectsPage{Metadata: data.CoinMetadata}
	if data.Objects == nil {
		log.Ctx(ctx).Warnf("indexer returned no objects for coin type %s, ending pagination", coinType)
		return page, nil
	}

	page.Nodes = data.Objects.Nodes
	page.HasNextPage = data.Objects.PageInfo.HasNextPage
	page.EndCursor = data.Objects.PageInfo.EndCursor
	return page, nil
}

func (c *GraphQLClient) request(ctx context.Context, bodyObj any) (*http.Response, error) {
	reqBody, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshalling request body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	return resp, nil
}

func isHTTPError(resp *http.Response) bool {
	return resp.StatusCode < 200 || resp.StatusCode >= 300
}

func transportError(ctx context.Context, resp *http.Response) error {
	defer utils.DeferredClose(ctx, resp.Body, "closing response body")

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Ctx(ctx).Errorf("reading response body to log error when statusCode=%d: %v", resp.StatusCode, err)
	}
	log.Ctx(ctx).Errorf("unexpected statusCode=%d, body=%v", resp.StatusCode, string(respBody))

	return &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
}

func parseResponseBody[T any](ctx context.Context, respBody io.ReadCloser) (*T, error) {
	defer utils.DeferredClose(ctx, respBody, "closing response body")

	respBodyBytes, err := io.ReadAll(respBody)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var response T
	err = json.Unmarshal(respBodyBytes, &response)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling response body: %w", err)
	}

	return &response, nil
}

func errorType(err error) string {
	var transportErr *TransportError
	var queryErr *QueryError
	switch {
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &queryErr):
		return "query_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context_error"
	default:
		return "request_error"
	}
}
