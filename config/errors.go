package config

import "errors"

var (
	// ErrReadConfig indicates the configuration file could not be read.
	ErrReadConfig = errors.New("config: read failed")

	// ErrParseConfig indicates the configuration file is not valid YAML.
	ErrParseConfig = errors.New("config: parse failed")

	// ErrInvalidEnv indicates an MCP_* override has an unusable value.
	ErrInvalidEnv = errors.New("config: invalid environment override")

	// ErrMissingServerName indicates Server.Name is empty.
	ErrMissingServerName = errors.New("config: server name is required")

	// ErrInvalidEnvironment indicates Server.Environment is not recognised.
	ErrInvalidEnvironment = errors.New("config: invalid environment")
)
