package blockscout

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Transfer is one token transfer from /api/v2/tokens/{addr}/transfers
type Transfer struct {
	From            AddressParam `json:"from"`
	To              AddressParam `json:"to"`
	Total           Total        `json:"total"`
	Token           Token        `json:"token"`
	TransactionHash string       `json:"transaction_hash"`
	TxHash          string       `json:"tx_hash"` // older explorer builds
	Type            string       `json:"type"`
	Method          string       `json:"method"`
	Timestamp       string       `json:"timestamp"`
	LogIndex        FlexString   `json:"log_index"`
}

// ID returns the transaction hash under either field name, or ""
func (t *Transfer) ID() string {
	if t.TransactionHash != "" {
		return t.TransactionHash
	}
	return t.TxHash
}

// AddressParam is the explorer's address object
type AddressParam struct {
	Hash       string `json:"hash"`
	IsContract bool   `json:"is_contract"`
}

// Total carries the raw integer amount and its decimals
type Total struct {
	Value    FlexString `json:"value"`
	Decimals FlexString `json:"decimals"`
}

// Token is the token descriptor attached to a transfer
type Token struct {
	Address  string     `json:"address"`
	Name     string     `json:"name"`
	Symbol   string     `json:"symbol"`
	Decimals FlexString `json:"decimals"`
	Type     string     `json:"type"`
}

// TransfersResponse wraps the transfers API response
type TransfersResponse struct {
	Items          []Transfer      `json:"items"`
	NextPageParams json.RawMessage `json:"next_page_params"`
}

// FlexString decodes a JSON string, number or null into a string.
// Blockscout returns amounts and decimals as strings, but some
// deployments emit bare numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Int parses the value as a base-10 int
func (f FlexString) Int() (int, bool) {
	if f == "" {
		return 0, false
	}
	v, err := strconv.Atoi(string(f))
	if err != nil {
		return 0, false
	}
	return v, true
}
