// Package mcp provides an MCP (Model Context Protocol) server adapter for tollgate.
// It lets AI assistants issue, redeem and check licences on behalf of a caller.
package mcp

import "errors"

// ErrMissingAccessService is returned when the access service is not provided.
var ErrMissingAccessService = errors.New("mcp: access service is required")
