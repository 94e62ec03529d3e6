package domain

import (
	"errors"
	"strings"
	"time"
)

// Role decides whether a participant may watch other trackers.
type Role string

const (
	RoleMonitor Role = "monitor"
	RoleRegular Role = "regular"
)

// Tier is the subscription level attached to an account.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

func (r Role) Valid() bool { return r == RoleMonitor || r == RoleRegular }

func (t Tier) Valid() bool {
	return t == TierFree || t == TierPro || t == TierEnterprise
}

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Tier         Tier      `json:"tier"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Capabilities is the resolved permission set for a session.
type Capabilities struct {
	CanMonitor   bool `json:"can_monitor"`
	CanBroadcast bool `json:"can_broadcast"`
}

// ResolveCapabilities maps a role/tier pair onto what the session may do.
// Monitoring needs both the monitor role and a paid tier.
func ResolveCapabilities(role Role, tier Tier) Capabilities {
	if !role.Valid() || !tier.Valid() {
		return Capabilities{}
	}
	caps := Capabilities{CanBroadcast: true}
	if role == RoleMonitor && tier != TierFree {
		caps.CanMonitor = true
	}
	return caps
}

// Session is the read-only identity the sync service runs under.
type Session struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Role        Role   `json:"role"`
	Tier        Tier   `json:"tier"`
}

// DisplayIdentity is the identity stamped on outgoing packets.
func (s Session) DisplayIdentity() string {
	if name := strings.TrimSpace(s.DisplayName); name != "" {
		return name
	}
	return s.UserID
}

// Capabilities resolves the session's role and tier.
func (s Session) Capabilities() Capabilities {
	return ResolveCapabilities(s.Role, s.Tier)
}

// SameIdentity compares two display identities ignoring case and
// surrounding whitespace.
func SameIdentity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
