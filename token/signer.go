package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey returns the key that verifies token
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// KeySource supplies the current signing secret. It is read on every call so
// that a configuration reload replaces the key without restarting.
type KeySource interface {
	GetSigningKey() string
}

// StaticKey is a KeySource that never changes.
type StaticKey string

func (k StaticKey) GetSigningKey() string { return string(k) }

// HMACsigner implements Signer using symmetric HMAC-SHA256
type HMACsigner struct {
	keys KeySource
}

// NewHMACSigner creates a new HMAC signer reading its secret from keys
func NewHMACSigner(keys KeySource) *HMACsigner {
	return &HMACsigner{keys: keys}
}

func (h *HMACsigner) secret() ([]byte, error) {
	key := h.keys.GetSigningKey()
	if key == "" {
		return nil, errors.New("signing key is not configured")
	}
	return []byte(key), nil
}

func (h *HMACsigner) Sign(claims jwt.Claims) (string, error) {
	secret, err := h.secret()
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret()
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}
