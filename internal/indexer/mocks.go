package indexer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) FetchCoinObjects(ctx context.Context, coinType string, cursor *string) (*CoinObjectsPage, error) {
	args := m.Called(ctx, coinType, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CoinObjectsPage), args.Error(1)
}
