package graph

import (
	"errors"
	"fmt"

	"github.com/chris-zen/kiro-engine/keystore"
)

// connect validates and applies one connection or binding. Bindings
// relate a parent port with a child port of the same direction, and
// connections relate an output with an input under the same parent.
// For the two symmetric binding shapes the endpoints are retried
// swapped before giving up, so callers do not have to remember which
// end is the parent.
func connect[D Descriptor[D]](g *Graph, fam family[D], connection Connection[D]) error {
	switch connection.kind {
	case moduleOutBindModuleOut:
		err := bindModuleOutputs(g, fam, connection.srcModuleOut, connection.dstModuleOut)
		if isOutOfScope(err) {
			if swappedErr := bindModuleOutputs(g, fam, connection.dstModuleOut, connection.srcModuleOut); swappedErr == nil {
				return nil
			}
		}
		return err
	case moduleInBindModuleIn:
		err := bindModuleInputs(g, fam, connection.srcModuleIn, connection.dstModuleIn)
		if isOutOfScope(err) {
			if swappedErr := bindModuleInputs(g, fam, connection.dstModuleIn, connection.srcModuleIn); swappedErr == nil {
				return nil
			}
		}
		return err
	case moduleInBindNodeIn:
		return bindModuleInputToNode(g, fam, connection.srcModuleIn, connection.dstNodeIn)
	case nodeOutBindModuleOut:
		return bindNodeOutputToModule(g, fam, connection.srcNodeOut, connection.dstModuleOut)
	case moduleOutToModuleIn:
		return connectModuleToModule(g, fam, connection.srcModuleOut, connection.dstModuleIn)
	case moduleOutToNodeIn:
		return connectModuleToNode(g, fam, connection.srcModuleOut, connection.dstNodeIn)
	case nodeOutToModuleIn:
		return connectNodeToModule(g, fam, connection.srcNodeOut, connection.dstModuleIn)
	case nodeOutToNodeIn:
		return connectNodeToNode(g, fam, connection.srcNodeOut, connection.dstNodeIn)
	}
	return fmt.Errorf("unknown connection kind %d", connection.kind)
}

func isOutOfScope(err error) bool {
	return errors.Is(err, ErrBindingOutOfScope) || errors.Is(err, ErrConnectionOutOfScope)
}

// bindModuleOutputs binds a child module output into an output of its
// parent module.
func bindModuleOutputs[D Descriptor[D]](g *Graph, fam family[D], src, dst ModuleOut[D]) error {
	srcModule, err := g.Module(src.module)
	if err != nil {
		return err
	}
	dstModule, err := g.Module(dst.module)
	if err != nil {
		return err
	}
	if srcModule.Parent != dst.module {
		return bindingOutOfScope(srcModule.FullName(), dstModule.FullName())
	}
	if _, err := moduleOutputPort(srcModule, fam, src.port); err != nil {
		return err
	}
	dstPort, err := moduleOutputPort(dstModule, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return outputSourceAlreadyDefined(dstModule.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

// bindModuleInputs binds a parent module input into an input of one of
// its child modules.
func bindModuleInputs[D Descriptor[D]](g *Graph, fam family[D], src, dst ModuleIn[D]) error {
	srcModule, err := g.Module(src.module)
	if err != nil {
		return err
	}
	dstModule, err := g.Module(dst.module)
	if err != nil {
		return err
	}
	if dstModule.Parent != src.module {
		return bindingOutOfScope(srcModule.FullName(), dstModule.FullName())
	}
	if _, err := moduleInputPort(srcModule, fam, src.port); err != nil {
		return err
	}
	dstPort, err := moduleInputPort(dstModule, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return inputSourceAlreadyDefined(dstModule.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

// bindModuleInputToNode binds a module input into an input of one of
// its child nodes.
func bindModuleInputToNode[D Descriptor[D]](g *Graph, fam family[D], src ModuleIn[D], dst NodeIn[D]) error {
	srcModule, err := g.Module(src.module)
	if err != nil {
		return err
	}
	dstNode, err := g.Node(dst.node)
	if err != nil {
		return err
	}
	if dstNode.Parent != src.module {
		return bindingOutOfScope(srcModule.FullName(), dstNode.FullName())
	}
	if _, err := moduleInputPort(srcModule, fam, src.port); err != nil {
		return err
	}
	dstPort, err := nodeInputPort(dstNode, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return inputSourceAlreadyDefined(dstNode.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

// bindNodeOutputToModule binds a node output into an output of the
// module the node lives in.
func bindNodeOutputToModule[D Descriptor[D]](g *Graph, fam family[D], src NodeOut[D], dst ModuleOut[D]) error {
	srcNode, err := g.Node(src.node)
	if err != nil {
		return err
	}
	dstModule, err := g.Module(dst.module)
	if err != nil {
		return err
	}
	if srcNode.Parent != dst.module {
		return bindingOutOfScope(srcNode.FullName(), dstModule.FullName())
	}
	if _, err := nodeOutputPort(srcNode, fam, src.port); err != nil {
		return err
	}
	dstPort, err := moduleOutputPort(dstModule, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return outputSourceAlreadyDefined(dstModule.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

// connectModuleToModule connects a module output to an input of a
// sibling module.
func connectModuleToModule[D Descriptor[D]](g *Graph, fam family[D], src ModuleOut[D], dst ModuleIn[D]) error {
	srcModule, err := g.Module(src.module)
	if err != nil {
		return err
	}
	dstModule, err := g.Module(dst.module)
	if err != nil {
		return err
	}
	if srcModule.Parent != dstModule.Parent {
		return connectionOutOfScope(srcModule.FullName(), dstModule.FullName())
	}
	if _, err := moduleOutputPort(srcModule, fam, src.port); err != nil {
		return err
	}
	dstPort, err := moduleInputPort(dstModule, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return inputSourceAlreadyDefined(dstModule.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

// connectModuleToNode connects a module output to an input of a
// sibling node.
func connectModuleToNode[D Descriptor[D]](g *Graph, fam family[D], src ModuleOut[D], dst NodeIn[D]) error {
	srcModule, err := g.Module(src.module)
	if err != nil {
		return err
	}
	dstNode, err := g.Node(dst.node)
	if err != nil {
		return err
	}
	if srcModule.Parent != dstNode.Parent {
		return connectionOutOfScope(srcModule.FullName(), dstNode.FullName())
	}
	if _, err := moduleOutputPort(srcModule, fam, src.port); err != nil {
		return err
	}
	dstPort, err := nodeInputPort(dstNode, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return inputSourceAlreadyDefined(dstNode.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

// connectNodeToModule connects a node output to an input of a sibling
// module.
func connectNodeToModule[D Descriptor[D]](g *Graph, fam family[D], src NodeOut[D], dst ModuleIn[D]) error {
	srcNode, err := g.Node(src.node)
	if err != nil {
		return err
	}
	dstModule, err := g.Module(dst.module)
	if err != nil {
		return err
	}
	if srcNode.Parent != dstModule.Parent {
		return connectionOutOfScope(srcNode.FullName(), dstModule.FullName())
	}
	if _, err := nodeOutputPort(srcNode, fam, src.port); err != nil {
		return err
	}
	dstPort, err := moduleInputPort(dstModule, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return inputSourceAlreadyDefined(dstModule.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

// connectNodeToNode connects a node output to an input of a sibling
// node.
func connectNodeToNode[D Descriptor[D]](g *Graph, fam family[D], src NodeOut[D], dst NodeIn[D]) error {
	srcNode, err := g.Node(src.node)
	if err != nil {
		return err
	}
	dstNode, err := g.Node(dst.node)
	if err != nil {
		return err
	}
	if srcNode.Parent != dstNode.Parent {
		return connectionOutOfScope(srcNode.FullName(), dstNode.FullName())
	}
	if _, err := nodeOutputPort(srcNode, fam, src.port); err != nil {
		return err
	}
	dstPort, err := nodeInputPort(dstNode, fam, dst.port)
	if err != nil {
		return err
	}
	if dstPort.Source != nil {
		return inputSourceAlreadyDefined(dstNode.FullName(), dstPort.Descriptor)
	}
	dstPort.Source = src
	return nil
}

func moduleInputPort[D Descriptor[D]](module *Module, fam family[D], key keystore.Key[InputPort[D]]) (*InputPort[D], error) {
	port := fam.ports(&module.Ports).inputs.Get(key)
	if port == nil {
		return nil, fmt.Errorf("%w: input of %s", ErrPortNotFound, module.FullName())
	}
	return port, nil
}

func moduleOutputPort[D Descriptor[D]](module *Module, fam family[D], key keystore.Key[OutputPort[D]]) (*OutputPort[D], error) {
	port := fam.ports(&module.Ports).outputs.Get(key)
	if port == nil {
		return nil, fmt.Errorf("%w: output of %s", ErrPortNotFound, module.FullName())
	}
	return port, nil
}

func nodeInputPort[D Descriptor[D]](node *Node, fam family[D], key keystore.Key[InputPort[D]]) (*InputPort[D], error) {
	port := fam.ports(&node.Ports).inputs.Get(key)
	if port == nil {
		return nil, fmt.Errorf("%w: input of %s", ErrPortNotFound, node.FullName())
	}
	return port, nil
}

func nodeOutputPort[D Descriptor[D]](node *Node, fam family[D], key keystore.Key[OutputPort[D]]) (*OutputPort[D], error) {
	port := fam.ports(&node.Ports).outputs.Get(key)
	if port == nil {
		return nil, fmt.Errorf("%w: output of %s", ErrPortNotFound, node.FullName())
	}
	return port, nil
}

func bindingOutOfScope(srcName, dstName string) error {
	return fmt.Errorf("%w: %s and %s are not parent and child", ErrBindingOutOfScope, srcName, dstName)
}

func connectionOutOfScope(srcName, dstName string) error {
	return fmt.Errorf("%w: %s and %s are not siblings", ErrConnectionOutOfScope, srcName, dstName)
}

func inputSourceAlreadyDefined[D Descriptor[D]](fullName string, descriptor D) error {
	return fmt.Errorf("%w: %s input %s", ErrInputSourceAlreadyDefined, descriptor.Type(), portPath(fullName, descriptor.ID()))
}

func outputSourceAlreadyDefined[D Descriptor[D]](fullName string, descriptor D) error {
	return fmt.Errorf("%w: %s output %s", ErrOutputSourceAlreadyDefined, descriptor.Type(), portPath(fullName, descriptor.ID()))
}
