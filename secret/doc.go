// Package secret keeps credentials out of configuration files.
//
// Configuration values may reference the environment with ${VAR}, which
// ExpandEnvStrict expands and rejects when VAR is unset, and may reference a
// secret store with the "secretref:" prefix:
//
//	secretref:env:FIREBASE_MCP_ADMIN_KEY
//	secretref:file:/run/secrets/jwt-signing-key
//	Bearer secretref:env:UPSTREAM_TOKEN
//
// A Resolver routes each reference to the Provider registered under its
// name. EnvProvider ("env") and FileProvider ("file") are built in and
// registered with DefaultRegistry.
package secret
