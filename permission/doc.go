// Package permission implements role-based access control for the Firebase
// tool server.
//
// A Store holds roles, permissions and per-user grants. A Resolver is the only
// writer of a Store: it validates every upsert (non-empty identifiers, known
// roles, acyclic inheritance) and answers permission queries.
//
// Permission identifiers are strings of the form "<resource>:<action>". An
// identifier ending in "*" is a wildcard that matches every identifier sharing
// its prefix, and the bare "*" matches everything. Explicit denials are exact:
// a user whose DeniedPermissions lists "firestore:delete" is never granted
// "firestore:delete", whatever their roles say.
//
// Permissions may carry Conditions (IP, time-of-day, usage, custom) which are
// checked against an EvalContext supplied by the caller. When no EvalContext
// is given, conditions are not checked.
package permission
