// Package auth issues and verifies the tokens that let the external
// processor call back for exactly the work item it was handed.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Kind scopes a callback token to one work-item table.
type Kind string

const (
	KindTranscription Kind = "transcription"
	KindAnalysis      Kind = "analysis"
)

// Claims carries the work item id in Subject.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"kind"`
}

// CallbackTokens signs HS256 tokens. With an empty secret it is disabled:
// Issue returns "" and Verify accepts anything.
type CallbackTokens struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewCallbackTokens(secret string, validity time.Duration) *CallbackTokens {
	return &CallbackTokens{secret: []byte(secret), validity: validity, now: time.Now}
}

func (c *CallbackTokens) Enabled() bool {
	return len(c.secret) > 0
}

func (c *CallbackTokens) Issue(kind Kind, subject string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		Kind: kind,
	})

	s, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign callback token: %w", err)
	}
	return s, nil
}

// Verify checks the signature, expiry and that the token was issued for
// kind and subject.
func (c *CallbackTokens) Verify(tokenString string, kind Kind, subject string) error {
	if !c.Enabled() {
		return nil
	}
	if tokenString == "" {
		return fmt.Errorf("%w: missing callback token", common.ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	if claims.Kind != kind || claims.Subject != subject {
		return fmt.Errorf("%w: issued for another work item", common.ErrInvalidToken)
	}
	return nil
}
