package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for persona lookups.
var (
	// ErrUnknownRole indicates a role outside the closed set of board roles.
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnknownMode indicates a CEO mode that has no instruction variant.
	ErrUnknownMode = errors.New("unknown mode")
)

// Role is one of the fixed executive board roles.
type Role string

const (
	RoleCEO Role = "CEO"
	RoleCTO Role = "CTO"
	RoleCFO Role = "CFO"
	RoleCMO Role = "CMO"
	RoleCOO Role = "COO"
	RoleCLO Role = "CLO"
)

// AllRoles returns every board role ordered by role name ascending.
func AllRoles() []Role {
	return []Role{RoleCEO, RoleCFO, RoleCLO, RoleCMO, RoleCOO, RoleCTO}
}

// Valid reports whether r is one of the board roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCEO, RoleCTO, RoleCFO, RoleCMO, RoleCOO, RoleCLO:
		return true
	}
	return false
}

// ID returns the persona record ID for the role ("cfo" for CFO).
func (r Role) ID() string {
	return strings.ToLower(string(r))
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// ModelTier selects the completion model class for a persona.
type ModelTier string

const (
	TierHigh     ModelTier = "high"
	TierStandard ModelTier = "standard"
)

// PersonaStatus is the availability of a persona.
type PersonaStatus string

const (
	PersonaActive   PersonaStatus = "active"
	PersonaInactive PersonaStatus = "inactive"
	PersonaOnLeave  PersonaStatus = "on_leave"
)

// ParsePersonaStatus parses a persona status.
func ParsePersonaStatus(s string) (PersonaStatus, error) {
	switch st := PersonaStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case PersonaActive, PersonaInactive, PersonaOnLeave:
		return st, nil
	}
	return "", fmt.Errorf("unknown persona status: %q", s)
}

// CEOMode selects one of the CEO instruction variants.
type CEOMode string

const (
	CEOLeader     CEOMode = "leader"
	CEOStrategist CEOMode = "strategist"
	CEOVisionary  CEOMode = "visionary"

	// DefaultCEOMode is used when no mode is requested.
	DefaultCEOMode = CEOLeader
)

// ParseCEOMode parses a CEO mode. An empty string yields DefaultCEOMode.
func ParseCEOMode(s string) (CEOMode, error) {
	switch m := CEOMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DefaultCEOMode, nil
	case CEOLeader, CEOStrategist, CEOVisionary:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Persona is a simulated executive seated on the board.
type Persona struct {
	ID            string        `json:"id"`
	Role          Role          `json:"role"`
	DisplayName   string        `json:"display_name"`
	LocalizedName string        `json:"localized_name"`
	ModelTier     ModelTier     `json:"model_tier"`
	Status        PersonaStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at,omitempty"`
}

// Active reports whether the persona takes part in turns.
func (p Persona) Active() bool {
	return p.Status == PersonaActive
}
