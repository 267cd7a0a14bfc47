// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants ask grounded questions against the indexed
// corpus through an `ask` tool.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")
