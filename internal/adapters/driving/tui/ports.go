// Package tui provides an interactive operator console for tollgate.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/tollgate/internal/core/ports/driving"
)

// Ports aggregates the driving ports the console needs.
type Ports struct {
	// Access is the licence facade. Every command goes through it.
	Access driving.AccessService

	// CallerID is who the console acts as.
	CallerID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Access == nil {
		return ErrMissingAccessService
	}
	if p.CallerID == "" {
		return ErrMissingCaller
	}
	return nil
}
