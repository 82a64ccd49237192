// Package auth implements the PIN gate and the signed session tokens that
// carry a passed gate between requests.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"finanzas/internal/core"
)

// PinGate checks the access PIN against a bcrypt hash.
type PinGate struct {
	hash []byte
}

// NewPinGate uses hash when set and otherwise hashes plain. One of the two
// is required.
func NewPinGate(hash, plain string) (*PinGate, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid ACCESS_PIN_HASH: %w", err)
		}
		return &PinGate{hash: []byte(hash)}, nil
	}
	if plain == "" {
		return nil, errors.New("missing ACCESS_PIN_HASH or ACCESS_PIN")
	}
	h, err := HashPin(plain)
	if err != nil {
		return nil, err
	}
	return &PinGate{hash: []byte(h)}, nil
}

// HashPin returns the bcrypt hash to store in ACCESS_PIN_HASH.
func HashPin(pin string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(h), nil
}

// Check returns core.ErrUnauthorized when pin does not match.
func (g *PinGate) Check(pin string) error {
	if pin == "" {
		return core.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(pin)); err != nil {
		return core.ErrUnauthorized
	}
	return nil
}
