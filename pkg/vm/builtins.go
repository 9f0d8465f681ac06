package vm

import (
	"strconv"
	"strings"

	"github.com/chazu/boruna/pkg/bytecode"
)

func (v *Vm) opListLen() error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	items, ok := val.AsList()
	if !ok {
		return typeError("List", val.TypeName())
	}
	return v.push(bytecode.Int(int64(len(items))))
}

func (v *Vm) opListGet() error {
	index, err := v.pop()
	if err != nil {
		return err
	}
	list, err := v.pop()
	if err != nil {
		return err
	}
	if index.Kind() != bytecode.KindInt {
		return typeError("Int", index.TypeName())
	}
	items, ok := list.AsList()
	if !ok {
		return typeError("List", list.TypeName())
	}
	idx := index.IntValue()
	if idx < 0 || int(idx) >= len(items) {
		return newError(KindIndexOutOfBounds, "list index out of bounds: index %d, length %d", idx, len(items))
	}
	return v.push(items[idx])
}

func (v *Vm) opListPush() error {
	value, err := v.pop()
	if err != nil {
		return err
	}
	list, err := v.pop()
	if err != nil {
		return err
	}
	items, ok := list.AsList()
	if !ok {
		return typeError("List", list.TypeName())
	}
	next := make([]bytecode.Value, len(items)+1)
	copy(next, items)
	next[len(items)] = value
	return v.push(bytecode.List(next))
}

func (v *Vm) opParseInt() error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	if val.Kind() != bytecode.KindString {
		return typeError("String", val.TypeName())
	}
	n, perr := strconv.ParseInt(strings.TrimSpace(val.StringValue()), 10, 64)
	if perr != nil {
		n = 0
	}
	return v.push(bytecode.Int(n))
}

func (v *Vm) opTryParseInt() error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	if val.Kind() != bytecode.KindString {
		return typeError("String", val.TypeName())
	}
	s := strings.TrimSpace(val.StringValue())
	n, perr := strconv.ParseInt(s, 10, 64)
	if perr != nil {
		return v.push(bytecode.Err(bytecode.Str("invalid integer: " + s)))
	}
	return v.push(bytecode.Ok(bytecode.Int(n)))
}

func (v *Vm) opStrContains() error {
	needle, err := v.pop()
	if err != nil {
		return err
	}
	haystack, err := v.pop()
	if err != nil {
		return err
	}
	if haystack.Kind() != bytecode.KindString {
		return typeError("String", haystack.TypeName())
	}
	if needle.Kind() != bytecode.KindString {
		return typeError("String", needle.TypeName())
	}
	return v.push(bytecode.Bool(strings.Contains(haystack.StringValue(), needle.StringValue())))
}

func (v *Vm) opStrStartsWith() error {
	prefix, err := v.pop()
	if err != nil {
		return err
	}
	s, err := v.pop()
	if err != nil {
		return err
	}
	if s.Kind() != bytecode.KindString {
		return typeError("String", s.TypeName())
	}
	if prefix.Kind() != bytecode.KindString {
		return typeError("String", prefix.TypeName())
	}
	return v.push(bytecode.Bool(strings.HasPrefix(s.StringValue(), prefix.StringValue())))
}
