package graph

import (
	"fmt"

	"github.com/chris-zen/kiro-engine/keystore"
)

// ModuleKey is the stable handle of a module in the graph.
type ModuleKey = keystore.Key[Module]

// Module is a named hierarchical container of nodes and other modules.
// Every module except the root has exactly one parent.
type Module struct {
	Name       string
	Descriptor ModuleDescriptor
	Parent     keystore.Key[Module] // zero for the root module
	Path       string
	Ports      Ports
}

func newModule(name string, descriptor ModuleDescriptor, parent ModuleKey, path string) Module {
	return Module{
		Name:       name,
		Descriptor: descriptor,
		Parent:     parent,
		Path:       path,
		Ports:      newPorts(descriptor.Ports),
	}
}

// FullName returns the path of the module including its own name.
func (m *Module) FullName() string {
	return fmt.Sprintf("%s/%s", m.Path, m.Name)
}

// IsRoot reports whether the module has no parent.
func (m *Module) IsRoot() bool {
	return m.Parent.IsZero()
}
