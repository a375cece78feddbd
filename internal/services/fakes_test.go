package services

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/suimigrate/migrate-backend/internal/data"
	"github.com/suimigrate/migrate-backend/internal/entities"
	"github.com/suimigrate/migrate-backend/internal/indexer"
)

// memorySnapshotStore is an in-memory SnapshotStore. Failures can be injected per operation.
type memorySnapshotStore struct {
	mu        sync.RWMutex
	nextID    int
	tokens    map[string]string
	snapshots map[string]data.SnapshotInsert
	holders   map[string][]entities.HolderBalance

	// holderBatches records the size of every InsertHolders call, failed ones included.
	holderBatches []int

	upsertErr         error
	insertSnapshotErr error
	// holderBatchErrs maps a 1-based InsertHolders call number to the error it returns.
	holderBatchErrs map[int]error
}

var _ SnapshotStore = (*memorySnapshotStore)(nil)

func newMemorySnapshotStore() *memorySnapshotStore {
	return &memorySnapshotStore{
		tokens:          map[string]string{},
		snapshots:       map[string]data.SnapshotInsert{},
		holders:         map[string][]entities.HolderBalance{},
		holderBatchErrs: map[int]error{},
	}
}

func (s *memorySnapshotStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *memorySnapshotStore) UpsertToken(_ context.Context, coinType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return "", s.upsertErr
	}
	if id, ok := s.tokens[coinType]; ok {
		return id, nil
	}
	id := s.id("token")
	s.tokens[coinType] = id
	return id, nil
}

func (s *memorySnapshotStore) InsertSnapshot(_ context.Context, snapshot data.SnapshotInsert) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertSnapshotErr != nil {
		return "", s.insertSnapshotErr
	}
	id := s.id("snapshot")
	s.snapshots[id] = snapshot
	return id, nil
}

func (s *memorySnapshotStore) InsertHolders(_ context.Context, snapshotID string, holders []entities.HolderBalance) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holderBatches = append(s.holderBatches, len(holders))
	if err, ok := s.holderBatchErrs[len(s.holderBatches)]; ok {
		return 0, err
	}
	s.holders[snapshotID] = append(s.holders[snapshotID], holders...)
	return len(holders), nil
}

func (s *memorySnapshotStore) InTransaction(ctx context.Context, fn func(store SnapshotStore) error) error {
	s.mu.RLock()
	tokens := maps.Clone(s.tokens)
	snapshots := maps.Clone(s.snapshots)
	holders := maps.Clone(s.holders)
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.tokens, s.snapshots, s.holders = tokens, snapshots, holders
		s.mu.Unlock()
		return fmt.Errorf("running snapshot transaction: %w", err)
	}
	return nil
}

func (s *memorySnapshotStore) snapshotCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

func (s *memorySnapshotStore) holderCount(snapshotID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.holders[snapshotID])
}

// scriptedIndexerClient serves pre-built pages in order and records the cursors it was called with.
type scriptedIndexerClient struct {
	mu      sync.Mutex
	pages   []*indexer.CoinObjectsPage
	cursors []*string
	// endless makes every call return a page with a next page.
	endless bool
	errAt   map[int]error
	onFetch func(call int)
}

var _ indexer.Client = (*scriptedIndexerClient)(nil)

func (c *scriptedIndexerClient) FetchCoinObjects(_ context.Context, _ string, cursor *string) (*indexer.CoinObjectsPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors = append(c.cursors, cursor)
	call := len(c.cursors)
	if c.onFetch != nil {
		c.onFetch(call)
	}
	if err, ok := c.errAt[call]; ok {
		return nil, err
	}
	if c.endless {
		next := fmt.Sprintf("cursor-%d", call)
		return &indexer.CoinObjectsPage{
			Nodes:       []indexer.CoinObjectNode{coinNode(fmt.Sprintf("0x%x", call), "1")},
			HasNextPage: true,
			EndCursor:   &next,
		}, nil
	}
	if call > len(c.pages) {
		return nil, fmt.Errorf("unexpected fetch %d", call)
	}
	return c.pages[call-1], nil
}

func (c *scriptedIndexerClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cursors)
}

func coinNode(owner, balance string) indexer.CoinObjectNode {
	return indexer.CoinObjectNode{
		Owner:    indexer.AddressOwner{Address: owner},
		Contents: json.RawMessage(fmt.Sprintf(`{"balance":%q}`, balance)),
	}
}

// pagesOfDistinctHolders builds pages with the given sizes, each node owned by a different address.
func pagesOfDistinctHolders(sizes ...int) []*indexer.CoinObjectsPage {
	pages := make([]*indexer.CoinObjectsPage, 0, len(sizes))
	owner := 0
	for i, size := range sizes {
		page := &indexer.CoinObjectsPage{HasNextPage: i < len(sizes)-1}
		if page.HasNextPage {
			cursor := fmt.Sprintf("cursor-%d", i+1)
			page.EndCursor = &cursor
		}
		for range size {
			owner++
			page.Nodes = append(page.Nodes, coinNode(fmt.Sprintf("0x%064x", owner), "10"))
		}
		pages = append(pages, page)
	}
	return pages
}

func distinctHolders(n int) []entities.HolderBalance {
	holders := make([]entities.HolderBalance, 0, n)
	for i := range n {
		holders = append(holders, entities.HolderBalance{Owner: fmt.Sprintf("0x%064x", i+1), Balance: oneToken})
	}
	return holders
}
