package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	addressOwnerTypeName = "AddressOwner"
	objectOwnerTypeName  = "ObjectOwner"
)

// Owner is the resolved owner of a coin object: AddressOwner, ObjectOwner or UnknownOwner.
type Owner interface {
	// OwnerAddress returns the owning address, or "" when the owner kind carries none.
	OwnerAddress() string
}

type AddressOwner struct {
	Address string
}

func (o AddressOwner) OwnerAddress() string { return o.Address }

// ObjectOwner is a coin wrapped by another object; the parent object id is used as the holder key.
type ObjectOwner struct {
	Address string
}

func (o ObjectOwner) OwnerAddress() string { return o.Address }

// UnknownOwner covers shared, immutable, consensus and any owner kinds added to the indexer later.
type UnknownOwner struct {
	TypeName string
}

func (o UnknownOwner) OwnerAddress() string { return "" }

type ownerNodeWrapper struct {
	TypeName string `json:"__typename"`
	Address  *struct {
		Address string `json:"address"`
	} `json:"address"`
}

// UnmarshalOwner decodes an owner node based on its __typename field.
func UnmarshalOwner(data []byte) (Owner, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return UnknownOwner{}, nil
	}

	var wrapper ownerNodeWrapper
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshaling owner wrapper: %w", err)
	}

	address := ""
	if wrapper.Address != nil {
		address = wrapper.Address.Address
	}

	switch wrapper.TypeName {
	case addressOwnerTypeName:
		return AddressOwner{Address: address}, nil
	case objectOwnerTypeName:
		return ObjectOwner{Address: address}, nil
	default:
		return UnknownOwner{TypeName: wrapper.TypeName}, nil
	}
}

// CoinObjectNode is one `0x2::coin::Coin<T>` object as returned by the indexer.
type CoinObjectNode struct {
	Owner Owner
	// Contents is the raw `asMoveObject.contents.json` value, nil when absent.
	Contents json.RawMessage
}

type coinObjectNodeWrapper struct {
	Owner        json.RawMessage `json:"owner"`
	AsMoveObject *struct {
		Contents *struct {
			JSON json.RawMessage `json:"json"`
		} `json:"contents"`
	} `json:"asMoveObject"`
}

// UnmarshalJSON does not fail on an unexpected owner shape: the node degrades to UnknownOwner so one odd object
// cannot abort a whole page.
func (n *CoinObjectNode) UnmarshalJSON(data []byte) error {
	var wrapper coinObjectNodeWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("unmarshaling coin object node: %w", err)
	}

	owner, err := UnmarshalOwner(wrapper.Owner)
	if err != nil {
		owner = UnknownOwner{}
	}
	n.Owner = owner

	n.Contents = nil
	if wrapper.AsMoveObject != nil && wrapper.AsMoveObject.Contents != nil {
		n.Contents = wrapper.AsMoveObject.Contents.JSON
	}
	return nil
}

// CoinMetadata is the display metadata the indexer holds for a coin type.
type CoinMetadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals *int   `json:"decimals"`
}

// CoinObjectsPage is one page of coin objects plus the pagination state needed to request the next one.
type CoinObjectsPage struct {
	Nodes       []CoinObjectNode
	HasNextPage bool
	EndCursor   *string
	// Metadata is nil when the indexer returned no coinMetadata.
	Metadata *CoinMetadata
}

type coinObjectsData struct {
	CoinMetadata *CoinMetadata `json:"coinMetadata"`
	Objects      *struct {
		PageInfo struct {
			HasNextPage bool    `json:"hasNextPage"`
			EndCursor   *string `json:"endCursor"`
		} `json:"pageInfo"`
		Nodes []CoinObjectNode `json:"nodes"`
	} `json:"objects"`
}

// TransportError is returned when the indexer answers with a non-2xx status.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Sui GraphQL error: %d", e.StatusCode)
}

// QueryError is returned when the indexer response carries GraphQL errors.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	if len(e.Messages) == 0 {
		return "GraphQL Query Error"
	}
	return fmt.Sprintf("GraphQL Query Error: %s", e.Messages[0])
}
