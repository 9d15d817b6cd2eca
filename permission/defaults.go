package permission

import "strings"

// DefaultServices lists the Firebase services covered by the built-in catalogue.
var DefaultServices = []string{
	"auth",
	"firestore",
	"storage",
	"functions",
	"analytics",
	"messaging",
	"hosting",
	"remote-config",
	"performance",
}

// DefaultActions lists the actions defined for every default service.
var DefaultActions = []string{"read", "write", "create", "update", "delete", "manage"}

// DefaultPermissions returns the built-in permission catalogue: one permission
// per service and action, a service wildcard per service, the global wildcard
// and security:audit.
func DefaultPermissions() []Permission {
	perms := make([]Permission, 0, len(DefaultServices)*(len(DefaultActions)+1)+2)
	for _, svc := range DefaultServices {
		for _, action := range DefaultActions {
			perms = append(perms, Permission{
				ID:          ID(svc, action),
				Name:        title(svc) + " " + title(action),
				Description: title(action) + " access to " + svc + " service",
				Resource:    svc,
				Action:      action,
			})
		}
		perms = append(perms, Permission{
			ID:          ID(svc, Wildcard),
			Name:        title(svc) + " Full Access",
			Description: "Full access to " + svc + " service",
			Resource:    svc,
			Action:      Wildcard,
		})
	}
	return append(perms,
		Permission{
			ID:          Wildcard,
			Name:        "Super Admin",
			Description: "Full access to all resources and actions",
			Resource:    Wildcard,
			Action:      Wildcard,
		},
		Permission{
			ID:          "security:audit",
			Name:        "Security Audit",
			Description: "Access to security audit functionality",
			Resource:    "security",
			Action:      "audit",
		},
	)
}

// DefaultRoles returns the built-in roles. editor and developer inherit
// viewer; admin inherits editor.
func DefaultRoles() []Role {
	return []Role{
		{
			ID:          "viewer",
			Name:        "Viewer",
			Description: "Read-only access to Firebase resources",
			Permissions: serviceGrants(map[string]string{}),
		},
		{
			ID:          "editor",
			Name:        "Editor",
			Description: "Read and write access to Firebase resources",
			Permissions: serviceGrants(map[string]string{
				"auth":          Wildcard,
				"firestore":     Wildcard,
				"storage":       Wildcard,
				"messaging":     Wildcard,
				"remote-config": Wildcard,
			}),
			Inherits: []string{"viewer"},
		},
		{
			ID:          "admin",
			Name:        "Administrator",
			Description: "Full access to all Firebase resources",
			Permissions: []string{Wildcard},
			Inherits:    []string{"editor"},
		},
		{
			ID:          "developer",
			Name:        "Developer",
			Description: "Development-focused permissions",
			Permissions: serviceGrants(map[string]string{
				"firestore":   Wildcard,
				"storage":     Wildcard,
				"functions":   Wildcard,
				"performance": Wildcard,
			}),
			Inherits: []string{"viewer"},
		},
		{
			ID:          "security-auditor",
			Name:        "Security Auditor",
			Description: "Security-focused read access",
			Permissions: []string{
				"auth:read",
				"firestore:read",
				"storage:read",
				"functions:read",
				"security:*",
			},
		},
	}
}

// serviceGrants returns "<svc>:read" for every default service, except where
// override names a different action.
func serviceGrants(override map[string]string) []string {
	out := make([]string, 0, len(DefaultServices))
	for _, svc := range DefaultServices {
		action, ok := override[svc]
		if !ok {
			action = "read"
		}
		out = append(out, ID(svc, action))
	}
	return out
}

func title(s string) string {
	if s == "" || s == Wildcard {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
