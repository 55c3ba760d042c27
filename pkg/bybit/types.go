package bybit

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
)

// Envelope is the response wrapper used across all V5 endpoints.
// RetCode is a pointer so that a missing code can be told apart from 0.
type Envelope struct {
	RetCode    *int            `json:"retCode"`    // 0 means success
	RetMsg     string          `json:"retMsg"`     // human-readable result or error
	Result     json.RawMessage `json:"result"`     // endpoint payload, decoded in a second step
	RetExtInfo json.RawMessage `json:"retExtInfo"` // optional extra info
	Time       int64           `json:"time"`       // server time in ms
}

// ListResult is the common `result` payload of list endpoints.
type ListResult struct {
	Category       string `json:"category"`
	NextPageCursor string `json:"nextPageCursor"`
	List           []Item `json:"list"`
}

// List decodes the envelope result as a ListResult. A missing or null result is
// a shape mismatch.
func (e *Envelope) List() (*ListResult, error) {
	if len(e.Result) == 0 || string(e.Result) == "null" {
		return nil, fmt.Errorf("result is missing")
	}
	var result ListResult
	if err := json.Unmarshal(e.Result, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

// Item is one list record (position, closed trade, wallet) kept as raw JSON.
// Fields are read on demand so one odd record never breaks decoding the list.
type Item json.RawMessage

func (i *Item) UnmarshalJSON(b []byte) error {
	*i = append((*i)[:0], b...)
	return nil
}

func (i Item) MarshalJSON() ([]byte, error) {
	if i == nil {
		return []byte("null"), nil
	}
	return i, nil
}

// Field returns the textual value of key. Both JSON strings and JSON numbers
// are accepted; anything else, including absence, is an error.
func (i Item) Field(key string) (string, error) {
	value, dataType, _, err := jsonparser.Get(i, key)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", key, err)
		}
		return s, nil
	case jsonparser.Number:
		return string(value), nil
	default:
		return "", fmt.Errorf("field %q: unexpected %s value", key, dataType)
	}
}
