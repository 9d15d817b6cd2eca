// Package auth authenticates tool-server requests and authorizes the actions
// they invoke.
//
// A Middleware is built from a Config. Authenticate turns request headers into
// an AuthContext: it extracts the credential (a bearer token or an X-API-Key
// header), checks it against the configured API keys (or, when configured, as
// a signed JWT), enforces the origin allow-list and the per-credential rate
// limit, and resolves the credential's permission strings. Authorize then
// decides whether an AuthContext may perform an action on a resource.
//
// When Config.Enabled is false every request is authenticated with the "*"
// permission.
//
// Header maps are matched case-insensitively. WithAuthHeaders moves HTTP
// request headers into a context so that code further down the call chain can
// authenticate without access to the request.
package auth
