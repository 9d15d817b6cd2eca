package config

import (
	"context"
	"fmt"

	"github.com/jonwraymond/firebase-mcp/permission"
)

// PermissionsConfig seeds a permission.Resolver.
type PermissionsConfig struct {
	// LoadDefaults seeds the built-in roles and permissions first.
	// Default: true
	LoadDefaults bool `yaml:"load_defaults"`

	Permissions []PermissionSpec             `yaml:"permissions"`
	Roles       []permission.Role            `yaml:"roles"`
	Users       []permission.UserPermissions `yaml:"users"`
}

// PermissionSpec is the file form of a permission.Permission.
type PermissionSpec struct {
	ID          string                     `yaml:"id"`
	Name        string                     `yaml:"name"`
	Description string                     `yaml:"description"`
	Resource    string                     `yaml:"resource"`
	Action      string                     `yaml:"action"`
	Conditions  []permission.ConditionSpec `yaml:"conditions"`
}

// Permission converts the entry, parsing its conditions. An empty ID defaults
// to "<resource>:<action>".
func (s PermissionSpec) Permission() (permission.Permission, error) {
	p := permission.Permission{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Resource:    s.Resource,
		Action:      s.Action,
	}
	if p.ID == "" {
		p.ID = permission.ID(s.Resource, s.Action)
	}
	for i, spec := range s.Conditions {
		c, err := permission.ParseCondition(spec)
		if err != nil {
			return permission.Permission{}, fmt.Errorf("permission %q condition %d: %w", p.ID, i, err)
		}
		p.Conditions = append(p.Conditions, c)
	}
	return p, nil
}

// Validate checks that every permission's conditions parse.
func (c *PermissionsConfig) Validate() error {
	for _, s := range c.Permissions {
		if _, err := s.Permission(); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the configured catalogue into r: defaults when LoadDefaults is
// set, then permissions, roles and users in file order. The first rejected
// entry stops the load and is returned.
func (c *PermissionsConfig) Apply(ctx context.Context, r *permission.Resolver) error {
	if c.LoadDefaults {
		r.Seed(permission.DefaultRoles(), permission.DefaultPermissions())
	}
	for _, s := range c.Permissions {
		p, err := s.Permission()
		if err != nil {
			return err
		}
		if err := r.SetPermission(ctx, p); err != nil {
			return err
		}
	}
	for _, role := range c.Roles {
		if err := r.SetRole(ctx, role); err != nil {
			return fmt.Errorf("role %q: %w", role.ID, err)
		}
	}
	for _, up := range c.Users {
		if err := r.SetUserPermissions(ctx, up); err != nil {
			return fmt.Errorf("user %q: %w", up.UserID, err)
		}
	}
	return nil
}
