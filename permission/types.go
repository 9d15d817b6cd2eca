package permission

import (
	"maps"
	"slices"
	"strings"
)

// Wildcard is the global grant that matches every permission.
const Wildcard = "*"

// Role is a named bundle of permissions, optionally inheriting other roles.
type Role struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Permissions []string `yaml:"permissions" json:"permissions"`
	Inherits    []string `yaml:"inherits" json:"inherits,omitempty"`
}

func (r Role) clone() Role {
	r.Permissions = slices.Clone(r.Permissions)
	r.Inherits = slices.Clone(r.Inherits)
	return r
}

// Permission is a (resource, action) capability, optionally gated by conditions.
type Permission struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Resource    string      `json:"resource"`
	Action      string      `json:"action"`
	Conditions  []Condition `json:"-"`
}

func (p Permission) clone() Permission {
	p.Conditions = slices.Clone(p.Conditions)
	return p
}

// UserPermissions is the grant record for one user.
type UserPermissions struct {
	UserID            string         `yaml:"user_id" json:"userId"`
	Roles             []string       `yaml:"roles" json:"roles"`
	DirectPermissions []string       `yaml:"direct_permissions" json:"directPermissions"`
	DeniedPermissions []string       `yaml:"denied_permissions" json:"deniedPermissions"`
	Metadata          map[string]any `yaml:"metadata" json:"metadata,omitempty"`
}

func (u UserPermissions) clone() UserPermissions {
	u.Roles = slices.Clone(u.Roles)
	u.DirectPermissions = slices.Clone(u.DirectPermissions)
	u.DeniedPermissions = slices.Clone(u.DeniedPermissions)
	u.Metadata = maps.Clone(u.Metadata)
	return u
}

// ID builds a permission identifier from a resource and an action.
func ID(resource, action string) string {
	if resource == "" {
		return action
	}
	return resource + ":" + action
}

// Match reports whether a granted permission covers the requested one: an
// exact match, or granted ends in "*" and requested starts with the text
// before it.
func Match(granted, requested string) bool {
	if granted == requested {
		return true
	}
	if prefix, ok := strings.CutSuffix(granted, Wildcard); ok {
		return strings.HasPrefix(requested, prefix)
	}
	return false
}

// MatchAny reports whether any granted permission covers requested.
func MatchAny(granted []string, requested string) bool {
	for _, g := range granted {
		if Match(g, requested) {
			return true
		}
	}
	return false
}
