package framework

import (
	"testing"

	"github.com/chazu/boruna/pkg/bytecode"
)

func TestValueToUITreeRecord(t *testing.T) {
	v := bytecode.Record(0, []bytecode.Value{bytecode.Str("button"), bytecode.Str("click me")})
	node := ValueToUITree(v)
	if node.Tag != "button" {
		t.Errorf("Tag = %q, want %q", node.Tag, "button")
	}
	if len(node.Props) != 1 || node.Props[0].Key != "field_1" {
		t.Errorf("Props = %+v", node.Props)
	}
}

func TestValueToUITreeList(t *testing.T) {
	v := bytecode.List([]bytecode.Value{
		bytecode.Record(0, []bytecode.Value{bytecode.Str("li")}),
		bytecode.Record(0, []bytecode.Value{bytecode.Str("li")}),
	})
	node := ValueToUITree(v)
	if node.Tag != "list" || len(node.Children) != 2 {
		t.Fatalf("ValueToUITree(list) = %+v", node)
	}
}

func TestValueToUITreeScalar(t *testing.T) {
	node := ValueToUITree(bytecode.Int(42))
	if node.Tag != "text" {
		t.Errorf("Tag = %q, want %q", node.Tag, "text")
	}
}

func TestUITreeToValueShape(t *testing.T) {
	node := NewUINode("div").WithProp("id", bytecode.Str("main")).WithChild(NewUINode("span"))
	v := UITreeToValue(node)
	if v.Kind() != bytecode.KindRecord {
		t.Fatalf("UITreeToValue() kind = %v, want Record", v.Kind())
	}
	fields := v.RecordFields()
	if fields[0].StringValue() != "div" {
		t.Errorf("tag field = %v, want div", fields[0])
	}
	props, _ := fields[1].AsList()
	if len(props) != 1 {
		t.Errorf("props = %v, want 1 entry", props)
	}
	children, _ := fields[2].AsList()
	if len(children) != 1 {
		t.Errorf("children = %v, want 1 entry", children)
	}
}
