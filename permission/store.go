package permission

import (
	"cmp"
	"slices"
	"sync"
)

// Store holds roles, permissions and user grants.
//
// Contract:
// - Concurrency: safe for concurrent use; readers never observe a partial write.
// - Ownership: values returned by lookups are copies.
// - Every Store is owned by one Resolver, the only writer.
type Store struct {
	mu          sync.RWMutex
	roles       map[string]Role
	permissions map[string]Permission
	users       map[string]UserPermissions
}

// newStore creates an empty Store.
func newStore() *Store {
	return &Store{
		roles:       make(map[string]Role),
		permissions: make(map[string]Permission),
		users:       make(map[string]UserPermissions),
	}
}

// Role returns the role with the given id.
func (s *Store) Role(id string) (Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return Role{}, false
	}
	return r.clone(), true
}

// Roles returns every role, ordered by id.
func (s *Store) Roles() []Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r.clone())
	}
	slices.SortFunc(out, func(a, b Role) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Permission returns the permission with the given id.
func (s *Store) Permission(id string) (Permission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[id]
	if !ok {
		return Permission{}, false
	}
	return p.clone(), true
}

// Permissions returns every permission, ordered by id.
func (s *Store) Permissions() []Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p.clone())
	}
	slices.SortFunc(out, func(a, b Permission) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// User returns the grant record for userID.
func (s *Store) User(userID string) (UserPermissions, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return UserPermissions{}, false
	}
	return u.clone(), true
}

// Users returns every grant record, ordered by user id.
func (s *Store) Users() []UserPermissions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserPermissions, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.clone())
	}
	slices.SortFunc(out, func(a, b UserPermissions) int { return cmp.Compare(a.UserID, b.UserID) })
	return out
}

// Len returns the number of roles, permissions and users held.
func (s *Store) Len() (roles, permissions, users int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roles), len(s.permissions), len(s.users)
}
