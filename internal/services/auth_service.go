package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadToken = errors.New("invalid or missing admin token")

// AuthService checks the bearer token of admin requests against a bcrypt
// hash. With no hash configured every request is let through.
type AuthService struct {
	Hash []byte
}

func NewAuthService(hash string) *AuthService {
	return &AuthService{Hash: []byte(hash)}
}

func (s *AuthService) Open() bool { return len(s.Hash) == 0 }

func (s *AuthService) Check(token string) error {
	if s.Open() {
		return nil
	}
	if token == "" || bcrypt.CompareHashAndPassword(s.Hash, []byte(token)) != nil {
		return ErrBadToken
	}
	return nil
}
