package indexer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/suimigrate/migrate-backend/internal/entities"
)

// HolderAggregator sums balances per owner address. Owners are compared as exact, case-sensitive strings.
//
// It is not safe for concurrent use; each snapshot run owns its own aggregator.
type HolderAggregator struct {
	balances map[string]decimal.Decimal
}

func NewHolderAggregator() *HolderAggregator {
	return &HolderAggregator{balances: make(map[string]decimal.Decimal)}
}

func (a *HolderAggregator) Add(owner string, balance decimal.Decimal) {
	current, ok := a.balances[owner]
	if !ok {
		a.balances[owner] = balance
		return
	}
	a.balances[owner] = current.Add(balance)
}

// AddNode normalizes a coin object and folds it in. It returns the skip reason for objects that were left out.
func (a *HolderAggregator) AddNode(node CoinObjectNode) SkipReason {
	holder, reason := NormalizeCoinObject(node)
	if reason != SkipReasonNone {
		return reason
	}
	a.Add(holder.Owner, holder.Balance)
	return SkipReasonNone
}

// Len returns the number of distinct owners seen so far.
func (a *HolderAggregator) Len() int {
	return len(a.balances)
}

// Balance returns the running balance of owner and whether it has been seen.
func (a *HolderAggregator) Balance(owner string) (decimal.Decimal, bool) {
	b, ok := a.balances[owner]
	return b, ok
}

// Holders returns the aggregated balances ordered by owner address.
func (a *HolderAggregator) Holders() []entities.HolderBalance {
	holders := make([]entities.HolderBalance, 0, len(a.balances))
	for owner, balance := range a.balances {
		holders = append(holders, entities.HolderBalance{Owner: owner, Balance: balance})
	}
	sort.Slice(holders, func(i, j int) bool {
		return holders[i].Owner < holders[j].Owner
	})
	return holders
}
