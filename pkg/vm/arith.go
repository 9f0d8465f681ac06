package vm

import "github.com/chazu/boruna/pkg/bytecode"

func (v *Vm) binaryOp(f func(a, b bytecode.Value) (bytecode.Value, error)) error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	result, err := f(a, b)
	if err != nil {
		return err
	}
	return v.push(result)
}

func (v *Vm) compareOp(ok func(cmp int) bool) error {
	b, err := v.pop()
	if err != nil {
		return err
	}
	a, err := v.pop()
	if err != nil {
		return err
	}
	var cmp int
	switch {
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindInt:
		cmp = compareInt(a.IntValue(), b.IntValue())
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindFloat:
		cmp = compareFloat(a.FloatValue(), b.FloatValue())
	case a.Kind() == bytecode.KindString && b.Kind() == bytecode.KindString:
		cmp = compareString(a.StringValue(), b.StringValue())
	default:
		return typeError("comparable", a.TypeName())
	}
	return v.push(bytecode.Bool(ok(cmp)))
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func numericTypeError(a, b bytecode.Value) error {
	if a.Kind() == bytecode.KindInt || a.Kind() == bytecode.KindFloat {
		return typeError("numeric", b.TypeName())
	}
	return typeError("numeric", a.TypeName())
}

func addOp(a, b bytecode.Value) (bytecode.Value, error) {
	switch {
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindInt:
		return bytecode.Int(a.IntValue() + b.IntValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(a.FloatValue() + b.FloatValue()), nil
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(float64(a.IntValue()) + b.FloatValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindInt:
		return bytecode.Float(a.FloatValue() + float64(b.IntValue())), nil
	default:
		return bytecode.Value{}, numericTypeError(a, b)
	}
}

func subOp(a, b bytecode.Value) (bytecode.Value, error) {
	switch {
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindInt:
		return bytecode.Int(a.IntValue() - b.IntValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(a.FloatValue() - b.FloatValue()), nil
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(float64(a.IntValue()) - b.FloatValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindInt:
		return bytecode.Float(a.FloatValue() - float64(b.IntValue())), nil
	default:
		return bytecode.Value{}, numericTypeError(a, b)
	}
}

func mulOp(a, b bytecode.Value) (bytecode.Value, error) {
	switch {
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindInt:
		return bytecode.Int(a.IntValue() * b.IntValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(a.FloatValue() * b.FloatValue()), nil
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(float64(a.IntValue()) * b.FloatValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindInt:
		return bytecode.Float(a.FloatValue() * float64(b.IntValue())), nil
	default:
		return bytecode.Value{}, numericTypeError(a, b)
	}
}

func divOp(a, b bytecode.Value) (bytecode.Value, error) {
	if b.Kind() == bytecode.KindInt && b.IntValue() == 0 {
		return bytecode.Value{}, newError(KindDivisionByZero, "division by zero")
	}
	if b.Kind() == bytecode.KindFloat && b.FloatValue() == 0.0 {
		return bytecode.Value{}, newError(KindDivisionByZero, "division by zero")
	}
	switch {
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindInt:
		return bytecode.Int(a.IntValue() / b.IntValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(a.FloatValue() / b.FloatValue()), nil
	case a.Kind() == bytecode.KindInt && b.Kind() == bytecode.KindFloat:
		return bytecode.Float(float64(a.IntValue()) / b.FloatValue()), nil
	case a.Kind() == bytecode.KindFloat && b.Kind() == bytecode.KindInt:
		return bytecode.Float(a.FloatValue() / float64(b.IntValue())), nil
	default:
		return bytecode.Value{}, numericTypeError(a, b)
	}
}

func modOp(a, b bytecode.Value) (bytecode.Value, error) {
	if a.Kind() != bytecode.KindInt || b.Kind() != bytecode.KindInt {
		if a.Kind() != bytecode.KindInt {
			return bytecode.Value{}, typeError("Int", a.TypeName())
		}
		return bytecode.Value{}, typeError("Int", b.TypeName())
	}
	if b.IntValue() == 0 {
		return bytecode.Value{}, newError(KindDivisionByZero, "division by zero")
	}
	return bytecode.Int(a.IntValue() % b.IntValue()), nil
}

func (v *Vm) opNeg() error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	switch val.Kind() {
	case bytecode.KindInt:
		return v.push(bytecode.Int(-val.IntValue()))
	case bytecode.KindFloat:
		return v.push(bytecode.Float(-val.FloatValue()))
	default:
		return typeError("numeric", val.TypeName())
	}
}
