// Package security provides token issuance and authentication for orderhub.
package security

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/happyhours/orderhub/internal/domain"
	"github.com/happyhours/orderhub/internal/domain/ports"
)

// AccessTokenPrefix identifies orderhub access tokens.
const AccessTokenPrefix = "ohb_a_"

// Common errors
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidFormat = errors.New("invalid token format")
)

// TokenPayload is the data encoded in an access token.
type TokenPayload struct {
	UserID    string      `json:"user_id"`
	Role      domain.Role `json:"role"`
	IssuedAt  int64       `json:"issued_at"`
	ExpiresAt int64       `json:"expires_at"`
	Nonce     string      `json:"nonce"`
}

// TokenManager issues and validates HMAC-SHA256 signed access tokens.
type TokenManager struct {
	secret            []byte
	defaultExpirySecs int
}

// NewTokenManager creates a token manager with the given signing secret.
// An empty secret is replaced with a random one, which invalidates all
// outstanding tokens on restart.
func NewTokenManager(secret string, expirySecs int) (*TokenManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate signing secret: %w", err)
		}
	}
	return &TokenManager{
		secret:            key,
		defaultExpirySecs: expirySecs,
	}, nil
}

// IssueToken issues an access token for the user with the default expiry.
func (tm *TokenManager) IssueToken(userID string, role domain.Role) (string, time.Time, error) {
	return tm.IssueTokenWithExpiry(userID, role, tm.defaultExpirySecs)
}

// IssueTokenWithExpiry issues an access token with a custom expiry.
func (tm *TokenManager) IssueTokenWithExpiry(userID string, role domain.Role, expirySecs int) (string, time.Time, error) {
	nonce, err := generateRandomString(16)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(expirySecs) * time.Second)

	payload := TokenPayload{
		UserID:    userID,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
		Nonce:     nonce,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	signature := tm.calculateHMAC(payloadJSON)

	combined := struct {
		Payload   string `json:"p"`
		Signature string `json:"s"`
	}{
		Payload:   base64.RawURLEncoding.EncodeToString(payloadJSON),
		Signature: base64.RawURLEncoding.EncodeToString(signature),
	}

	combinedJSON, err := json.Marshal(combined)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to marshal token: %w", err)
	}

	token := AccessTokenPrefix + base64.RawURLEncoding.EncodeToString(combinedJSON)
	return token, expiresAt, nil
}

// ValidateToken validates a token and returns the payload if valid.
func (tm *TokenManager) ValidateToken(token string) (*TokenPayload, error) {
	if len(token) <= len(AccessTokenPrefix) || token[:len(AccessTokenPrefix)] != AccessTokenPrefix {
		return nil, ErrInvalidFormat
	}
	tokenData := token[len(AccessTokenPrefix):]

	combinedJSON, err := base64.RawURLEncoding.DecodeString(tokenData)
	if err != nil {
		return nil, ErrInvalidFormat
	}

	var combined struct {
		Payload   string `json:"p"`
		Signature string `json:"s"`
	}
	if err := json.Unmarshal(combinedJSON, &combined); err != nil {
		return nil, ErrInvalidFormat
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(combined.Payload)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	signature, err := base64.RawURLEncoding.DecodeString(combined.Signature)
	if err != nil {
		return nil, ErrInvalidFormat
	}

	expectedSig := tm.calculateHMAC(payloadJSON)
	if !hmac.Equal(signature, expectedSig) {
		return nil, ErrInvalidToken
	}

	var payload TokenPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, ErrInvalidFormat
	}

	if time.Now().Unix() > payload.ExpiresAt {
		return nil, ErrExpiredToken
	}

	return &payload, nil
}

func (tm *TokenManager) calculateHMAC(data []byte) []byte {
	mac := hmac.New(sha256.New, tm.secret)
	mac.Write(data)
	return mac.Sum(nil)
}

func generateRandomString(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// TokenAuthenticator resolves a validated token to a live principal. The
// user is re-read from the store so a deleted account or changed role takes
// effect immediately, not at token expiry.
type TokenAuthenticator struct {
	tokens *TokenManager
	users  ports.UserStore
}

// NewTokenAuthenticator creates an authenticator over the token manager and
// user store.
func NewTokenAuthenticator(tokens *TokenManager, users ports.UserStore) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens, users: users}
}

// Authenticate validates the credential and returns the principal behind it.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, credential string) (domain.Principal, error) {
	payload, err := a.tokens.ValidateToken(credential)
	if err != nil {
		return domain.Principal{}, err
	}

	user, err := a.users.GetUser(ctx, payload.UserID)
	if err != nil {
		return domain.Principal{}, err
	}

	return domain.Principal{UserID: user.ID, Role: user.Role}, nil
}
