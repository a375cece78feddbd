package indexer

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/suimigrate/migrate-backend/internal/entities"
)

// BurnAddress is the Sui zero address. Coins sent there are unrecoverable and never counted as held.
const BurnAddress = "0x0000000000000000000000000000000000000000000000000000000000000000"

// SkipReason says why a coin object was left out of a snapshot. The empty reason means the object was kept.
type SkipReason string

const (
	SkipReasonNone              SkipReason = ""
	SkipReasonUnsupportedOwner  SkipReason = "unsupported_owner"
	SkipReasonEmptyOwner        SkipReason = "empty_owner"
	SkipReasonBurnAddress       SkipReason = "burn_address"
	SkipReasonMissingBalance    SkipReason = "missing_balance"
	SkipReasonMalformedBalance  SkipReason = "malformed_balance"
	SkipReasonNonPositiveAmount SkipReason = "non_positive_balance"
)

type coinContents struct {
	Balance json.RawMessage `json:"balance"`
}

// NormalizeCoinObject turns one coin object into an (owner, balance) pair. It never fails: anything that cannot
// count towards a holder balance is reported through the returned SkipReason.
func NormalizeCoinObject(node CoinObjectNode) (entities.HolderBalance, SkipReason) {
	if node.Owner == nil {
		return entities.HolderBalance{}, SkipReasonUnsupportedOwner
	}
	if _, ok := node.Owner.(UnknownOwner); ok {
		return entities.HolderBalance{}, SkipReasonUnsupportedOwner
	}

	owner := node.Owner.OwnerAddress()
	if owner == "" {
		return entities.HolderBalance{}, SkipReasonEmptyOwner
	}
	if owner == BurnAddress {
		return entities.HolderBalance{}, SkipReasonBurnAddress
	}

	balance, reason := parseBalance(node.Contents)
	if reason != SkipReasonNone {
		return entities.HolderBalance{}, reason
	}

	return entities.HolderBalance{Owner: owner, Balance: balance}, SkipReasonNone
}

// parseBalance accepts the balance as a JSON string (the indexer's encoding of u64) or a JSON number.
func parseBalance(contents json.RawMessage) (decimal.Decimal, SkipReason) {
	if len(contents) == 0 || bytes.Equal(contents, []byte("null")) {
		return decimal.Zero, SkipReasonMissingBalance
	}

	var c coinContents
	if err := json.Unmarshal(contents, &c); err != nil {
		return decimal.Zero, SkipReasonMissingBalance
	}
	raw := bytes.TrimSpace(c.Balance)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, SkipReasonMissingBalance
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, SkipReasonMalformedBalance
		}
	} else {
		text = string(raw)
	}

	balance, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, SkipReasonMalformedBalance
	}
	if !balance.IsInteger() {
		return decimal.Zero, SkipReasonMalformedBalance
	}
	if !balance.IsPositive() {
		return decimal.Zero, SkipReasonNonPositiveAmount
	}

	return balance, SkipReasonNone
}
