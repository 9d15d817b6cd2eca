// Package gateway puts the access-control layer in front of tool handlers.
//
// A tool call arrives as a tool name, the request headers and an input value.
// Guard authenticates the headers, derives the (action, resource) pair from
// the tool name with ParseToolName, authorizes it, and runs the handler with
// the AuthContext stored in its context:
//
//	guard := gateway.NewGuard(mw, gateway.WithExecution(obsMW))
//	out, err := guard.Call(ctx, "firestore_get_document", headers, input, handler)
//
// The package also provides the permission-check audit operation
// (CheckPermissions) and health checkers for the auth middleware and the
// permission resolver.
package gateway
