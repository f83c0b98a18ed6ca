package auth

import "time"

// Role names the surface a token grants access to.
type Role string

const (
	RoleOperator Role = "operator"
	RoleShopper  Role = "shopper"
)

// Valid reports whether the role is one the gateway knows.
func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleShopper
}

// Claims are the verified contents of a bearer token.
type Claims struct {
	Subject string
	Role    Role
}

type Strategy interface {
	IssueToken(subject string, role Role) (string, error)
	ParseToken(token string) (*Claims, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
