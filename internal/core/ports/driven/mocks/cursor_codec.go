package mocks

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/arealis/stac-search-core/internal/core/domain"
)

// MockCursorCodec is an unsigned base64 CursorCodec for testing. It encodes
// the same payload shape as the real codec without the signature.
type MockCursorCodec struct{}

// NewMockCursorCodec creates a new MockCursorCodec
func NewMockCursorCodec() *MockCursorCodec {
	return &MockCursorCodec{}
}

type mockCursorPayload struct {
	Fingerprint string   `json:"fp"`
	Types       []string `json:"kt"`
	Keyset      []any    `json:"ks"`
}

func (c *MockCursorCodec) Encode(cursor *domain.Cursor) (string, error) {
	payload := mockCursorPayload{Fingerprint: cursor.Fingerprint}
	for _, v := range cursor.Keyset {
		payload.Types = append(payload.Types, string(v.Type))
		payload.Keyset = append(payload.Keyset, v.Scalar())
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func (c *MockCursorCodec) Decode(token string) (*domain.Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}
	var payload mockCursorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.ErrInvalidCursor
	}
	if len(payload.Types) != len(payload.Keyset) {
		return nil, domain.ErrInvalidCursor
	}
	cursor := &domain.Cursor{Fingerprint: payload.Fingerprint}
	for i, raw := range payload.Keyset {
		switch domain.PropertyType(payload.Types[i]) {
		case domain.TypeNumber:
			n, ok := raw.(float64)
			if !ok {
				return nil, domain.ErrInvalidCursor
			}
			cursor.Keyset = append(cursor.Keyset, domain.NumberValue(n))
		case domain.TypeTimestamp:
			s, ok := raw.(string)
			if !ok {
				return nil, domain.ErrInvalidCursor
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, domain.ErrInvalidCursor
			}
			cursor.Keyset = append(cursor.Keyset, domain.TimeValue(t))
		case domain.TypeString:
			s, ok := raw.(string)
			if !ok {
				return nil, domain.ErrInvalidCursor
			}
			cursor.Keyset = append(cursor.Keyset, domain.StringValue(s))
		default:
			return nil, domain.ErrInvalidCursor
		}
	}
	return cursor, nil
}
