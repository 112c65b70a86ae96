// Package cursor implements the opaque pagination token as a signed value:
// clients cannot construct or alter a resume point by hand, and a token
// replayed against a different filter is rejected by its fingerprint.
package cursor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arealis/stac-search-core/internal/core/domain"
	"github.com/arealis/stac-search-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CursorCodec = (*Codec)(nil)

// cursorClaims is the signed payload: the sort-key value tuple at the last
// returned row, each entry tagged with its type, plus the filter fingerprint
// the token was issued under.
type cursorClaims struct {
	Fingerprint string   `json:"fp"`
	Types       []string `json:"kt"`
	Keyset      []string `json:"ks"`
	jwt.RegisteredClaims
}

// Codec signs and verifies pagination tokens with HMAC-SHA256
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a codec signing with the given secret. A non-zero ttl
// expires tokens; zero means tokens never expire.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Encode produces the opaque token for a resume point
func (c *Codec) Encode(cursor *domain.Cursor) (string, error) {
	claims := cursorClaims{
		Fingerprint: cursor.Fingerprint,
		Types:       make([]string, len(cursor.Keyset)),
		Keyset:      make([]string, len(cursor.Keyset)),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(c.ttl))
	}
	for i, v := range cursor.Keyset {
		claims.Types[i] = string(v.Type)
		claims.Keyset[i] = encodeValue(v)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies the token signature and rebuilds the resume point.
// Malformed, tampered, expired or mistyped tokens fail with
// domain.ErrInvalidCursor.
func (c *Codec) Decode(tokenString string) (*domain.Cursor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &cursorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}

	claims, ok := token.Claims.(*cursorClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidCursor
	}
	if len(claims.Types) != len(claims.Keyset) {
		return nil, domain.ErrInvalidCursor
	}

	cursor := &domain.Cursor{
		Fingerprint: claims.Fingerprint,
		Keyset:      make([]domain.Value, len(claims.Keyset)),
	}
	for i, raw := range claims.Keyset {
		v, err := decodeValue(domain.PropertyType(claims.Types[i]), raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
		}
		cursor.Keyset[i] = v
	}
	return cursor, nil
}

func encodeValue(v domain.Value) string {
	switch v.Type {
	case domain.TypeNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case domain.TypeTimestamp:
		return v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return v.Str
	}
}

func decodeValue(t domain.PropertyType, raw string) (domain.Value, error) {
	switch t {
	case domain.TypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Value{}, fmt.Errorf("malformed numeric key %q", raw)
		}
		return domain.NumberValue(n), nil
	case domain.TypeTimestamp:
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.Value{}, fmt.Errorf("malformed timestamp key %q", raw)
		}
		return domain.TimeValue(ts), nil
	case domain.TypeString:
		return domain.StringValue(raw), nil
	default:
		return domain.Value{}, fmt.Errorf("unsupported key type %q", t)
	}
}
