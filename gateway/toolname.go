package gateway

import (
	"strings"

	"github.com/jonwraymond/firebase-mcp/permission"
)

// servicePrefixes maps tool name prefixes to the resource they act on.
// Longer prefixes are listed first so "firebase_auth" wins over "firebase".
var servicePrefixes = []struct {
	prefix   string
	resource string
}{
	{"firebase_auth", "auth"},
	{"remote_config", "remote-config"},
	{"performance", "performance"},
	{"analytics", "analytics"},
	{"firestore", "firestore"},
	{"functions", "functions"},
	{"messaging", "messaging"},
	{"security", "security"},
	{"hosting", "hosting"},
	{"storage", "storage"},
	{"rtdb", "realtime-database"},
	{"fcm", "messaging"},
}

// verbActions maps the leading verb of a tool operation to a catalogue action.
var verbActions = map[string]string{
	"get":        "read",
	"list":       "read",
	"query":      "read",
	"exists":     "read",
	"download":   "read",
	"validate":   "read",
	"check":      "read",
	"create":     "create",
	"add":        "create",
	"push":       "create",
	"upload":     "create",
	"update":     "update",
	"set":        "update",
	"delete":     "delete",
	"remove":     "delete",
	"audit":      "manage",
	"scan":       "manage",
	"generate":   "manage",
	"schedule":   "manage",
	"trigger":    "manage",
	"connection": "manage",
}

// ToolName is a tool name split into the parts authorization needs.
type ToolName struct {
	// Name is the normalised tool name.
	Name string

	// Resource is the service the tool acts on, e.g. "firestore".
	Resource string

	// Operation is the rest of the name, e.g. "get_document".
	Operation string

	// Action is the catalogue action the operation needs, e.g. "read".
	Action string
}

// ParseToolName splits a tool name into resource and operation. Dashes are
// treated as underscores. Known service prefixes map to their resource name;
// otherwise the first segment is the resource. A name without an underscore
// is a resource with an empty operation.
func ParseToolName(name string) ToolName {
	name = strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
	tn := ToolName{Name: name}

	for _, sp := range servicePrefixes {
		if name == sp.prefix {
			tn.Resource = sp.resource
			break
		}
		if rest, ok := strings.CutPrefix(name, sp.prefix+"_"); ok {
			tn.Resource, tn.Operation = sp.resource, rest
			break
		}
	}
	if tn.Resource == "" {
		tn.Resource, tn.Operation, _ = strings.Cut(name, "_")
	}
	tn.Action = ActionFor(tn.Operation)
	return tn
}

// ActionFor returns the catalogue action an operation needs, judged by its
// leading verb. An empty operation is a read; an unrecognised verb is a write.
func ActionFor(operation string) string {
	if operation == "" {
		return "read"
	}
	verb, _, _ := strings.Cut(operation, "_")
	if action, ok := verbActions[verb]; ok {
		return action
	}
	return "write"
}

// Permission returns the permission id for this tool in the
// "<resource>:<action>" form the resolver catalogue uses.
func (t ToolName) Permission() string {
	return permission.ID(t.Resource, t.Action)
}
