package test

import (
	pkgAuth "github.com/wingbite/trackd/internal/pkg/auth"
)

// TokenParserStub verifies nothing and returns the configured claims.
type TokenParserStub struct {
	Claims *pkgAuth.Claims
	Err    error
}

// ParseToken returns the configured claims or error.
func (s TokenParserStub) ParseToken(string) (*pkgAuth.Claims, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Claims != nil {
		return s.Claims, nil
	}
	return &pkgAuth.Claims{Subject: "op-1", Role: pkgAuth.RoleOperator}, nil
}
