package mcp

import (
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the MCP server.
type Ports struct {
	// Access performs every licence operation.
	Access driving.AccessService

	// Journal backs the journal resources. Optional.
	Journal driven.JournalStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Access == nil {
		return ErrMissingAccessService
	}
	return nil
}
