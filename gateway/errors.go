package gateway

import "errors"

var (
	// ErrMissingToolName indicates Call was given an empty tool name.
	ErrMissingToolName = errors.New("gateway: tool name is required")

	// ErrNilHandler indicates Call was given a nil handler.
	ErrNilHandler = errors.New("gateway: handler is nil")

	// ErrMissingUserID indicates CheckPermissions was given an empty user id.
	ErrMissingUserID = errors.New("gateway: user id is required")

	// ErrMissingAction indicates CheckPermissions was given an empty action.
	ErrMissingAction = errors.New("gateway: action is required")
)
