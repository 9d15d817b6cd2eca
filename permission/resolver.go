package permission

import (
	"context"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/firebase-mcp/observe"
)

// DefaultClosureCacheSize bounds the number of memoised role closures.
const DefaultClosureCacheSize = 256

// Resolver validates writes to a Store and answers permission queries.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: mutators return *ValidationError and leave the store unchanged on
// failure; HasPermission never errors.
type Resolver struct {
	store    *Store
	logger   observe.Logger
	now      func() time.Time
	closures *lru.Cache[string, []string]
	group    singleflight.Group

	cacheSize    int
	seedDefaults bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Defaults to observe.NopLogger().
func WithLogger(l observe.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the clock used by time conditions.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithCacheSize bounds the role closure cache.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.cacheSize = n
		}
	}
}

// WithDefaults seeds the built-in roles and permissions.
func WithDefaults() Option {
	return func(r *Resolver) {
		r.seedDefaults = true
	}
}

// NewResolver creates a Resolver owning a new, empty Store.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		store:     newStore(),
		logger:    observe.NopLogger(),
		now:       time.Now,
		cacheSize: DefaultClosureCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(observe.F("component", "permission"))

	// lru.New only fails for a non-positive size.
	r.closures, _ = lru.New[string, []string](r.cacheSize)

	if r.seedDefaults {
		roles, perms := DefaultRoles(), DefaultPermissions()
		r.Seed(roles, perms)
		r.logger.Info(context.Background(), "default catalogue loaded",
			observe.F("roles", len(roles)),
			observe.F("permissions", len(perms)),
		)
	}
	return r
}

// Store returns the underlying store for read-only lookups.
func (r *Resolver) Store() *Store {
	return r.store
}

// Seed writes roles and permissions without validation. It is meant for
// trusted, static catalogues such as DefaultRoles.
func (r *Resolver) Seed(roles []Role, perms []Permission) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range perms {
		r.store.permissions[p.ID] = p.clone()
	}
	for _, role := range roles {
		r.store.roles[role.ID] = role.clone()
	}
	r.closures.Purge()
}

// SetRole validates and stores role, replacing any role with the same id.
// Inheritance must stay acyclic. Permission ids that are not registered are
// logged but accepted.
func (r *Resolver) SetRole(ctx context.Context, role Role) error {
	missing, err := r.setRole(role)
	if err != nil {
		r.logger.Error(ctx, "failed to set role", observe.F("role", role.ID), observe.F("error", err))
		return err
	}
	for _, id := range missing {
		r.logger.Warn(ctx, "permission not found for role", observe.F("role", role.ID), observe.F("permission", id))
	}
	r.logger.Info(ctx, "role updated", observe.F("role", role.ID), observe.F("name", role.Name))
	return nil
}

func (r *Resolver) setRole(role Role) ([]string, error) {
	if role.ID == "" || role.Name == "" {
		return nil, newValidationError("set role", "role ID and name are required", nil)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.reachesLocked(role.Inherits, role.ID) {
		return nil, newValidationError("set role",
			fmt.Sprintf("circular inheritance detected for role %q", role.ID), ErrCircularInheritance)
	}

	var missing []string
	for _, id := range role.Permissions {
		if _, ok := r.store.permissions[id]; !ok && id != Wildcard {
			missing = append(missing, id)
		}
	}

	r.store.roles[role.ID] = role.clone()
	r.closures.Purge()
	return missing, nil
}

// reachesLocked reports whether target is reachable from the given roles by
// following inherits edges. Unknown roles are leaves.
func (r *Resolver) reachesLocked(from []string, target string) bool {
	visited := make(map[string]bool)
	stack := slices.Clone(from)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		if role, ok := r.store.roles[id]; ok {
			stack = append(stack, role.Inherits...)
		}
	}
	return false
}

// SetPermission validates and stores p, replacing any permission with the same id.
func (r *Resolver) SetPermission(ctx context.Context, p Permission) error {
	if err := validatePermission(p); err != nil {
		r.logger.Error(ctx, "failed to set permission", observe.F("permission", p.ID), observe.F("error", err))
		return err
	}

	r.store.mu.Lock()
	r.store.permissions[p.ID] = p.clone()
	r.store.mu.Unlock()

	r.logger.Debug(ctx, "permission updated", observe.F("permission", p.ID))
	return nil
}

func validatePermission(p Permission) error {
	if p.ID == "" || p.Resource == "" || p.Action == "" {
		return newValidationError("set permission", "permission ID, resource, and action are required", nil)
	}
	for _, c := range p.Conditions {
		if err := validateCondition(c); err != nil {
			return err
		}
	}
	return nil
}

// SetUserPermissions validates and stores up, replacing the user's whole record.
// Every listed role must exist.
func (r *Resolver) SetUserPermissions(ctx context.Context, up UserPermissions) error {
	if err := r.setUser(up); err != nil {
		r.logger.Error(ctx, "failed to set user permissions", observe.F("user", up.UserID), observe.F("error", err))
		return err
	}
	r.logger.Info(ctx, "user permissions updated",
		observe.F("user", up.UserID),
		observe.F("roles", up.Roles),
		observe.F("direct_permissions", len(up.DirectPermissions)),
	)
	return nil
}

func (r *Resolver) setUser(up UserPermissions) error {
	if up.UserID == "" {
		return newValidationError("set user permissions", "user ID is required", nil)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, id := range up.Roles {
		if _, ok := r.store.roles[id]; !ok {
			return newValidationError("set user permissions",
				fmt.Sprintf("role %q does not exist", id), ErrUnknownRole)
		}
	}
	r.store.users[up.UserID] = up.clone()
	return nil
}

// RolePermissions returns the permissions of roleID together with those of
// every role it inherits, directly or transitively, sorted. An unknown role
// yields an empty slice.
func (r *Resolver) RolePermissions(roleID string) []string {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return slices.Clone(r.closureLocked(roleID))
}

// closureLocked returns the memoised closure of roleID. The returned slice is
// shared and must not be modified. Callers hold at least the read lock; cache
// entries are only added under it and purged under the write lock, so a cached
// closure always reflects the current roles.
func (r *Resolver) closureLocked(roleID string) []string {
	if perms, ok := r.closures.Get(roleID); ok {
		return perms
	}
	v, _, _ := r.group.Do(roleID, func() (any, error) {
		perms := r.computeClosureLocked(roleID)
		r.closures.Add(roleID, perms)
		return perms, nil
	})
	return v.([]string)
}

func (r *Resolver) computeClosureLocked(roleID string) []string {
	set := make(map[string]struct{})
	visited := make(map[string]bool)
	stack := []string{roleID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		role, ok := r.store.roles[id]
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
		stack = append(stack, role.Inherits...)
	}
	return sortedKeys(set)
}

// UserPermissions returns the user's effective permissions: direct grants and
// role closures, minus explicit denials, sorted. An unknown user yields an
// empty slice.
func (r *Resolver) UserPermissions(userID string) []string {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	up, ok := r.store.users[userID]
	if !ok {
		return []string{}
	}
	return r.effectiveLocked(up)
}

func (r *Resolver) effectiveLocked(up UserPermissions) []string {
	set := make(map[string]struct{})
	for _, p := range up.DirectPermissions {
		set[p] = struct{}{}
	}
	for _, roleID := range up.Roles {
		for _, p := range r.closureLocked(roleID) {
			set[p] = struct{}{}
		}
	}
	for _, p := range up.DeniedPermissions {
		delete(set, p)
	}
	return sortedKeys(set)
}

// HasPermission reports whether userID holds permissionID. The decision is
// made in order:
//
//  1. unknown user: false
//  2. permissionID explicitly denied: false
//  3. granted directly, or "*" granted directly: conditions decide
//  4. effective set contains permissionID, "*", or a matching wildcard:
//     conditions decide
//  5. otherwise false
//
// Conditions are those of the registered permission named permissionID. They
// pass when the permission has none or ec is nil. Any evaluation failure is
// logged and denies.
func (r *Resolver) HasPermission(ctx context.Context, userID, permissionID string, ec *EvalContext) (allowed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(ctx, "error checking permission",
				observe.F("user", userID),
				observe.F("permission", permissionID),
				observe.F("error", fmt.Sprint(rec)),
			)
			allowed = false
		}
	}()

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	up, ok := r.store.users[userID]
	if !ok {
		r.logger.Debug(ctx, "user not found", observe.F("user", userID))
		return false
	}

	if slices.Contains(up.DeniedPermissions, permissionID) {
		return false
	}

	if slices.Contains(up.DirectPermissions, permissionID) || slices.Contains(up.DirectPermissions, Wildcard) {
		return r.conditionsHoldLocked(ctx, userID, permissionID, ec)
	}

	if MatchAny(r.effectiveLocked(up), permissionID) {
		return r.conditionsHoldLocked(ctx, userID, permissionID, ec)
	}
	return false
}

func (r *Resolver) conditionsHoldLocked(ctx context.Context, userID, permissionID string, ec *EvalContext) bool {
	p, ok := r.store.permissions[permissionID]
	if !ok || len(p.Conditions) == 0 || ec == nil {
		return true
	}

	now := r.now()
	for _, c := range p.Conditions {
		ok, err := evaluate(c, ec, now)
		if err != nil {
			r.logger.Error(ctx, "condition evaluation failed",
				observe.F("user", userID),
				observe.F("permission", permissionID),
				observe.F("condition", c.String()),
				observe.F("error", err),
			)
			return false
		}
		if !ok {
			r.logger.Debug(ctx, "condition not met",
				observe.F("user", userID),
				observe.F("permission", permissionID),
				observe.F("condition", c.String()),
			)
			return false
		}
	}
	return true
}

// Role returns the role with the given id.
func (r *Resolver) Role(id string) (Role, bool) { return r.store.Role(id) }

// Roles returns every role, ordered by id.
func (r *Resolver) Roles() []Role { return r.store.Roles() }

// Permission returns the permission with the given id.
func (r *Resolver) Permission(id string) (Permission, bool) { return r.store.Permission(id) }

// Permissions returns every permission, ordered by id.
func (r *Resolver) Permissions() []Permission { return r.store.Permissions() }

// User returns the grant record for userID.
func (r *Resolver) User(userID string) (UserPermissions, bool) { return r.store.User(userID) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
