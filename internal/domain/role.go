package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role 멤버 권한 (순서 있음: user < resident < moderator < admin < owner)
type Role int

const (
	RoleUser Role = iota
	RoleResident
	RoleModerator
	RoleAdmin
	RoleOwner
)

var roleNames = [...]string{"user", "resident", "moderator", "admin", "owner"}

// ParseRole parses a lowercase role name
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return RoleUser, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	if r < RoleUser || r > RoleOwner {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Rank 정수 비교용 순위
func (r Role) Rank() int { return int(r) }

// AtLeast reports whether r ranks at or above min
func (r Role) AtLeast(min Role) bool { return r.Rank() >= min.Rank() }

// Outranks reports whether r ranks strictly above other
func (r Role) Outranks(other Role) bool { return r.Rank() > other.Rank() }

// IsProtected 모더레이터 이상은 일반 제재/투표 대상이 아님
func (r Role) IsProtected() bool { return r.AtLeast(RoleModerator) }

// Value stores the role by name
func (r Role) Value() (driver.Value, error) {
	if r < RoleUser || r > RoleOwner {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}

// Scan reads a role name column
func (r *Role) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*r = RoleUser
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
