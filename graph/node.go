package graph

import (
	"fmt"

	"github.com/chris-zen/kiro-engine/keystore"
)

// NodeKey is the stable handle of a node in the graph.
type NodeKey = keystore.Key[Node]

// Node is a leaf processor instance living under exactly one module.
type Node struct {
	Name       string
	Descriptor NodeDescriptor
	Parent     ModuleKey
	Path       string
	Ports      Ports
}

func newNode(name string, descriptor NodeDescriptor, parent ModuleKey, path string) Node {
	return Node{
		Name:       name,
		Descriptor: descriptor,
		Parent:     parent,
		Path:       path,
		Ports:      newPorts(descriptor.Ports),
	}
}

// FullName returns the path of the node including its own name.
func (n *Node) FullName() string {
	return fmt.Sprintf("%s/%s", n.Path, n.Name)
}
