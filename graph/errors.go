package graph

import "errors"

// Graph errors are local and recoverable: a failed mutation rejects the
// single offending call and leaves the graph unchanged.
var (
	ErrModuleNotFound           = errors.New("module not found")
	ErrNodeNotFound             = errors.New("node not found")
	ErrPortNotFound             = errors.New("port not found")
	ErrDynamicPortsNotAvailable = errors.New("dynamic ports not available")

	// ErrBindingOutOfScope is returned when the two endpoints of a
	// binding are not in a parent/child relationship.
	ErrBindingOutOfScope = errors.New("binding out of scope")

	// ErrConnectionOutOfScope is returned when the two endpoints of a
	// connection do not share the same parent.
	ErrConnectionOutOfScope = errors.New("connection out of scope")

	ErrInputSourceAlreadyDefined  = errors.New("input source already defined")
	ErrOutputSourceAlreadyDefined = errors.New("output source already defined")

	// ErrCycle is returned by Topology when the port sources form a
	// loop, which cannot be scheduled.
	ErrCycle = errors.New("cycle detected")
)
