// Package access resolves the role of a session and the capabilities that
// role grants. Roles are advisory; they scope what the service returns,
// not what the underlying store allows.
package access

import (
	"crypto/subtle"
	"strings"
)

// Role is the privilege level of a session.
type Role int

const (
	// RoleViewer sees and submits only its own entries.
	RoleViewer Role = iota
	// RoleTrainer sees every entry and may export, aggregate, and delete.
	RoleTrainer
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleTrainer:
		return "trainer"
	case RoleViewer:
		return "viewer"
	default:
		return "unknown"
	}
}

// CredentialChecker decides whether a presented credential grants the
// trainer role.
type CredentialChecker interface {
	IsTrainer(credential string) bool
}

// SharedSecret grants the trainer role to callers presenting a fixed key.
// An empty secret never matches.
type SharedSecret string

// IsTrainer compares the credential in constant time.
func (s SharedSecret) IsTrainer(credential string) bool {
	if s == "" || credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s), []byte(credential)) == 1
}

// Session is a resolved caller identity.
type Session struct {
	UserID string
	Role   Role
}

// IsTrainer reports whether the session holds the trainer role.
func (s Session) IsTrainer() bool { return s.Role == RoleTrainer }

// CanSeeAll reports whether entries of other users are visible.
func (s Session) CanSeeAll() bool { return s.IsTrainer() }

// CanDelete reports whether the session may delete entries.
func (s Session) CanDelete() bool { return s.IsTrainer() }

// CanExport reports whether the session may download exports.
func (s Session) CanExport() bool { return s.IsTrainer() }

// CanViewStats reports whether aggregate statistics are visible.
func (s Session) CanViewStats() bool { return s.IsTrainer() }

// Resolver computes a session once per request from the caller's
// identity and presented credential.
type Resolver struct {
	checker CredentialChecker
}

// NewResolver returns a resolver backed by checker. A nil checker grants
// nobody the trainer role.
func NewResolver(checker CredentialChecker) *Resolver {
	if checker == nil {
		checker = SharedSecret("")
	}
	return &Resolver{checker: checker}
}

// Resolve returns the session for userID presenting credential.
func (r *Resolver) Resolve(userID, credential string) Session {
	role := RoleViewer
	if r.checker.IsTrainer(strings.TrimSpace(credential)) {
		role = RoleTrainer
	}
	return Session{UserID: userID, Role: role}
}
