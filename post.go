package feedprobe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// cursorModulus bounds every cursor to the range [0, cursorModulus).
const cursorModulus = 1000

// Timestamp is the raw value of a post's "d" field.
//
// The server may send the timestamp as a JSON number or as a numeric string.
// Timestamp keeps the raw JSON and defers validation until [Timestamp.Int] or
// [Timestamp.Cursor] is called, so a batch with an odd "d" somewhere in the
// middle still decodes.
type Timestamp struct {
	raw json.RawMessage
}

// TimestampOf returns a Timestamp holding the integer v.
func TimestampOf(v int64) Timestamp {
	return Timestamp{raw: json.RawMessage(fmt.Sprintf("%d", v))}
}

// IsZero reports whether the timestamp was absent from the post.
func (t Timestamp) IsZero() bool {
	return len(t.raw) == 0
}

// String returns the raw JSON text of the timestamp.
func (t Timestamp) String() string {
	return string(t.raw)
}

// Int converts the timestamp to an integer.
//
// Fractional values are truncated toward zero. Numeric strings are accepted
// (surrounding whitespace is ignored). Anything else yields an error wrapping
// [ErrInvalidTimestamp].
func (t Timestamp) Int() (*big.Int, error) {
	if t.IsZero() {
		return nil, fmt.Errorf("%w: missing \"d\" field", ErrInvalidTimestamp)
	}

	text := string(bytes.TrimSpace(t.raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(t.raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidTimestamp, s)
		}
		return n, nil
	}

	if strings.ContainsAny(text, ".eE") {
		f, _, err := big.ParseFloat(text, 10, 256, big.ToZero)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTimestamp, text)
		}
		n, _ := f.Int(nil)
		return n, nil
	}

	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimestamp, text)
	}
	return n, nil
}

// Cursor reduces the timestamp modulo 1000.
//
// The result always lies in [0, 999], negative timestamps included.
func (t Timestamp) Cursor() (int, error) {
	n, err := t.Int()
	if err != nil {
		return 0, err
	}
	m := new(big.Int).Mod(n, big.NewInt(cursorModulus))
	return int(m.Int64()), nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return t.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Post is a single record returned by the feed service.
//
// Only the "d" timestamp is interpreted. All fields, "d" included, are kept
// verbatim in Fields.
type Post struct {
	D      Timestamp
	Fields map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Post) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	p.Fields = fields
	p.D = Timestamp{}
	if raw, ok := fields["d"]; ok {
		p.D = Timestamp{raw: raw}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Post) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(p.Fields)+1)
	for k, v := range p.Fields {
		fields[k] = v
	}
	if !p.D.IsZero() {
		fields["d"] = p.D.raw
	}
	return json.Marshal(fields)
}

// Batch is an ordered sequence of posts. The server's order is treated as
// chronological: the last element is the most recent post.
type Batch []Post

// Last returns the most recent post.
// An empty batch has no cursor to continue from and yields [ErrEmptyBatch].
func (b Batch) Last() (Post, error) {
	if len(b) == 0 {
		return Post{}, ErrEmptyBatch
	}
	return b[len(b)-1], nil
}

// Rate is the server's per-second rate estimate for one field.
type Rate struct {
	Rate    float64 `json:"rate"`
	Inexact bool    `json:"inexact"`
}

// RateInfo maps a field name to its rate. It is informational only.
type RateInfo map[string]Rate

// BatchResponse is the body returned by both the index and sync endpoints.
type BatchResponse struct {
	Batch Batch    `json:"batch"`
	Rates RateInfo `json:"rates,omitempty"`
}

// DecodeBatchResponse parses a response body.
//
// The "batch" key is required; "rates" is optional. Errors wrap
// [ErrMalformedResponse].
func DecodeBatchResponse(body []byte) (BatchResponse, error) {
	var raw struct {
		Batch json.RawMessage `json:"batch"`
		Rates RateInfo        `json:"rates"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return BatchResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Batch == nil {
		return BatchResponse{}, fmt.Errorf("%w: missing \"batch\" field", ErrMalformedResponse)
	}

	var batch Batch
	if err := json.Unmarshal(raw.Batch, &batch); err != nil {
		return BatchResponse{}, fmt.Errorf("%w: batch: %v", ErrMalformedResponse, err)
	}

	return BatchResponse{Batch: batch, Rates: raw.Rates}, nil
}
