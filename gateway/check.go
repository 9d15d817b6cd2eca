package gateway

import (
	"context"
	"time"

	"github.com/jonwraymond/firebase-mcp/permission"
)

// CheckPermissionsTool is the tool name under which CheckPermissions is served.
const CheckPermissionsTool = "security_check_permissions"

// PermissionReport is the result of a permission check for one user.
type PermissionReport struct {
	UserID          string    `json:"userId"`
	Action          string    `json:"action"`
	Resource        string    `json:"resource"`
	Permission      string    `json:"permission"`
	HasPermission   bool      `json:"hasPermission"`
	UserPermissions []string  `json:"userPermissions"`
	Roles           []string  `json:"userRoles"`
	Direct          []string  `json:"directPermissions"`
	Denied          []string  `json:"deniedPermissions"`
	CheckedAt       time.Time `json:"timestamp"`
}

// CheckPermissions reports whether userID holds the permission for action on
// resource, together with the user's effective, role, direct and denied
// permissions. An empty resource checks the action alone and is reported as
// "none". The caller's remote IP, when set with auth.WithRemoteAddr, feeds IP
// conditions.
func CheckPermissions(ctx context.Context, r *permission.Resolver, userID, action, resource string) (PermissionReport, error) {
	if userID == "" {
		return PermissionReport{}, ErrMissingUserID
	}
	if action == "" {
		return PermissionReport{}, ErrMissingAction
	}

	id := permission.ID(resource, action)
	report := PermissionReport{
		UserID:          userID,
		Action:          action,
		Resource:        resource,
		Permission:      id,
		HasPermission:   r.HasPermission(ctx, userID, id, evalContext(ctx)),
		UserPermissions: r.UserPermissions(userID),
		Roles:           []string{},
		Direct:          []string{},
		Denied:          []string{},
		CheckedAt:       time.Now().UTC(),
	}
	if report.Resource == "" {
		report.Resource = "none"
	}
	if up, ok := r.User(userID); ok {
		report.Roles = append(report.Roles, up.Roles...)
		report.Direct = append(report.Direct, up.DirectPermissions...)
		report.Denied = append(report.Denied, up.DeniedPermissions...)
	}
	return report, nil
}
