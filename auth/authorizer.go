package auth

import (
	"context"

	"github.com/jonwraymond/firebase-mcp/observe"
	"github.com/jonwraymond/firebase-mcp/permission"
)

// RequiredPermission returns the permission string an action on a resource
// needs: "action:resource", or just "action" when resource is empty.
func RequiredPermission(action, resource string) string {
	if resource == "" {
		return action
	}
	return action + ":" + resource
}

// Authorize reports whether ac may perform action on resource. It never
// errors: a nil or unauthenticated context is denied.
//
// "*" and "admin" grant everything. Otherwise a permission grants the request
// when it equals RequiredPermission(action, resource), equals action alone,
// or ends in "*" and prefixes the required permission.
func (m *Middleware) Authorize(ctx context.Context, ac *AuthContext, action, resource string) bool {
	allowed, required := authorize(ac, action, resource)

	fields := []observe.Field{
		observe.F("action", action),
		observe.F("resource", resource),
		observe.F("required", required),
		observe.F("allowed", allowed),
	}
	if ac != nil {
		fields = append(fields, observe.F("client.id", ac.ClientID), observe.F("permissions", ac.Permissions))
	}
	m.logger.Debug(ctx, "authorization check", fields...)
	m.metrics.RecordAuthorization(ctx, action, resource, allowed)
	return allowed
}

func authorize(ac *AuthContext, action, resource string) (bool, string) {
	required := RequiredPermission(action, resource)
	if ac == nil || !ac.Authenticated {
		return false, required
	}

	for _, p := range ac.Permissions {
		if p == "*" || p == "admin" {
			return true, required
		}
	}
	for _, p := range ac.Permissions {
		if p == action || permission.Match(p, required) {
			return true, required
		}
	}
	return false, required
}

// Deny builds the error returned to a caller whose Authorize check failed.
func Deny(ac *AuthContext, action, resource string) *AuthzError {
	clientID := ""
	if ac != nil {
		clientID = ac.ClientID
	}
	return &AuthzError{
		ClientID: clientID,
		Resource: resource,
		Action:   action,
		Reason:   "missing permission " + RequiredPermission(action, resource),
	}
}
