// Package auth verifies bearer tokens issued by the managed auth provider
// and exposes the caller's identity to handlers. Sign-up and token issuance
// live with the provider; this service only verifies.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

// Verifier validates HS256 bearer tokens against the shared signing secret.
type Verifier struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

func (v Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Verify parses and validates the token, returning the caller's principal.
// The role claim defaults to "customer" when absent.
func (v Verifier) Verify(token string) (common.Principal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Principal{}, errors.New("auth: token is empty")
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Principal{}, fmt.Errorf("auth: %w", err)
	}
	if algorithm != jwa.HS256 {
		return common.Principal{}, fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, v.Secret))
	if err != nil {
		return common.Principal{}, fmt.Errorf("auth: parse token: %w", err)
	}
	if err := v.validate(parsed); err != nil {
		return common.Principal{}, err
	}

	principal := common.Principal{UserID: parsed.Subject(), Role: "customer"}
	if principal.UserID == "" {
		return common.Principal{}, errors.New("auth: token missing subject")
	}
	if email, ok := parsed.Get("email"); ok {
		if s, ok := email.(string); ok {
			principal.Email = s
		}
	}
	if role, ok := parsed.Get("role"); ok {
		if s, ok := role.(string); ok && s != "" {
			principal.Role = s
		}
	}
	return principal, nil
}

func (v Verifier) validate(tok jwt.Token) error {
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.now)),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, options...); err != nil {
		return fmt.Errorf("auth: validate token: %w", err)
	}
	return nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("token contains no signatures")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("token missing protected headers")
	}
	algorithm := headers.Algorithm()
	if algorithm == "" {
		return "", errors.New("token missing algorithm")
	}
	return algorithm, nil
}
