// Package config loads the server configuration.
//
// Load reads optional dotenv files into the process environment, parses a
// YAML file with ${VAR} references expanded, applies MCP_* environment
// overrides, and resolves secretref:<provider>:<ref> values in the auth
// section. The result is validated before it is returned.
//
//	cfg, err := config.Load("firebase-mcp.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	mw := auth.NewMiddleware(cfg.Auth)
package config
