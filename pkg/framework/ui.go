package framework

import (
	"strconv"

	"github.com/chazu/boruna/pkg/bytecode"
)

// UINode is one node in the declarative UI tree view() produces. The
// framework never renders anything itself — it only passes the tree
// through to the host, which is free to map tag/props/children onto
// whatever presentation layer it owns.
type UINode struct {
	Tag      string
	Props    []UIProp
	Children []UINode
}

// UIProp is one (key, value) pair attached to a UINode.
type UIProp struct {
	Key   string
	Value bytecode.Value
}

// NewUINode constructs an empty node with the given tag.
func NewUINode(tag string) UINode { return UINode{Tag: tag} }

// WithProp returns a copy of n with prop appended.
func (n UINode) WithProp(key string, value bytecode.Value) UINode {
	n.Props = append(append([]UIProp(nil), n.Props...), UIProp{Key: key, Value: value})
	return n
}

// WithChild returns a copy of n with child appended.
func (n UINode) WithChild(child UINode) UINode {
	n.Children = append(append([]UINode(nil), n.Children...), child)
	return n
}

// ValueToUITree converts a VM Value (produced by view()) into a UINode
// tree: a Record's first field names the tag, remaining fields become
// numbered props; scalars become single "text" nodes; a List becomes a
// "list" node whose children are each item converted recursively.
func ValueToUITree(value bytecode.Value) UINode {
	switch value.Kind() {
	case bytecode.KindRecord:
		fields := value.RecordFields()
		tag := "div"
		if len(fields) > 0 && fields[0].Kind() == bytecode.KindString {
			tag = fields[0].StringValue()
		}
		node := NewUINode(tag)
		for i := 1; i < len(fields); i++ {
			node = node.WithProp(fieldName(i), fields[i])
		}
		return node
	case bytecode.KindString:
		return NewUINode("text").WithProp("value", value)
	case bytecode.KindInt, bytecode.KindBool, bytecode.KindFloat:
		return NewUINode("text").WithProp("value", value)
	case bytecode.KindList:
		node := NewUINode("list")
		for _, item := range value.ListItems() {
			node = node.WithChild(ValueToUITree(item))
		}
		return node
	default:
		return NewUINode("raw").WithProp("value", value)
	}
}

func fieldName(i int) string {
	return "field_" + strconv.Itoa(i)
}

// UITreeToValue converts a UINode to a Value for serialization:
// Record{tag, List(prop values), List(children)}. Prop keys are dropped,
// and ValueToUITree does not restore the node from it: it reads the two
// lists back as props field_1 and field_2.
func UITreeToValue(n UINode) bytecode.Value {
	propValues := make([]bytecode.Value, len(n.Props))
	for i, p := range n.Props {
		propValues[i] = p.Value
	}
	childValues := make([]bytecode.Value, len(n.Children))
	for i, c := range n.Children {
		childValues[i] = UITreeToValue(c)
	}
	return bytecode.Record(0, []bytecode.Value{
		bytecode.Str(n.Tag),
		bytecode.List(propValues),
		bytecode.List(childValues),
	})
}
