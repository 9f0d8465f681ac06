package vm

import (
	"github.com/chazu/boruna/pkg/bytecode"
)

// execute is the main interpreter loop. It runs until the call stack
// empties (Completed), the budget is exhausted (errBudgetExhausted), a
// ReceiveMsg opcode finds an empty mailbox under a budgeted call
// (errMailboxEmpty), or a VM fault occurs.
func (v *Vm) execute() (bytecode.Value, error) {
	for {
		if len(v.callStack) == 0 {
			if n := len(v.stack); n > 0 {
				val := v.stack[n-1]
				v.stack = v.stack[:n-1]
				return val, nil
			}
			return bytecode.Unit(), nil
		}

		if v.stepCount >= v.maxSteps {
			return bytecode.Value{}, errBudgetExhausted
		}
		if v.budgeted && v.stepCount-v.budgetStart >= v.budget {
			return bytecode.Value{}, errBudgetExhausted
		}
		v.stepCount++

		frame := v.top()
		fn := &v.module.Functions[frame.funcIdx]
		ip := frame.ip

		if ip >= len(fn.Code) {
			// Implicit return Unit when code runs off the end.
			base := frame.stackBase
			v.callStack = v.callStack[:len(v.callStack)-1]
			v.stack = v.stack[:base]
			if err := v.push(bytecode.Unit()); err != nil {
				return bytecode.Value{}, err
			}
			continue
		}

		inst := fn.Code[ip]
		v.top().ip = ip + 1

		if err := v.step(frame.funcIdx, ip, inst); err != nil {
			return bytecode.Value{}, err
		}
	}
}

func (v *Vm) step(funcIdx uint32, ip int, inst bytecode.Instruction) error {
	switch inst.Op {
	case bytecode.OpPushConst:
		val, err := v.constant(inst.A)
		if err != nil {
			return err
		}
		return v.push(val)

	case bytecode.OpLoadLocal:
		val, err := v.local(inst.A)
		if err != nil {
			return err
		}
		return v.push(val)

	case bytecode.OpStoreLocal:
		val, err := v.pop()
		if err != nil {
			return err
		}
		return v.setLocal(inst.A, val)

	case bytecode.OpLoadGlobal:
		if int(inst.A) >= len(v.globals) {
			return typeError("valid global index", "out of bounds")
		}
		return v.push(v.globals[inst.A])

	case bytecode.OpStoreGlobal:
		val, err := v.pop()
		if err != nil {
			return err
		}
		if int(inst.A) >= len(v.globals) {
			return typeError("valid global index", "out of bounds")
		}
		v.globals[inst.A] = val
		return nil

	case bytecode.OpCall:
		arity := int(inst.B)
		args := make([]bytecode.Value, arity)
		for i := arity - 1; i >= 0; i-- {
			val, err := v.pop()
			if err != nil {
				return err
			}
			args[i] = val
		}
		return v.callFunction(inst.A, args)

	case bytecode.OpRet:
		result, err := v.pop()
		if err != nil {
			result = bytecode.Unit()
		}
		frame := v.callStack[len(v.callStack)-1]
		v.callStack = v.callStack[:len(v.callStack)-1]
		v.stack = v.stack[:frame.stackBase]
		return v.push(result)

	case bytecode.OpJmp:
		v.top().ip = int(inst.A)
		return nil

	case bytecode.OpJmpIf:
		val, err := v.pop()
		if err != nil {
			return err
		}
		if val.IsTruthy() {
			v.top().ip = int(inst.A)
		}
		return nil

	case bytecode.OpJmpIfNot:
		val, err := v.pop()
		if err != nil {
			return err
		}
		if !val.IsTruthy() {
			v.top().ip = int(inst.A)
		}
		return nil

	case bytecode.OpMatch:
		return v.opMatch(funcIdx, inst.A)

	case bytecode.OpMakeRecord:
		fieldCount := int(inst.B)
		fields := make([]bytecode.Value, fieldCount)
		for i := fieldCount - 1; i >= 0; i-- {
			val, err := v.pop()
			if err != nil {
				return err
			}
			fields[i] = val
		}
		return v.push(bytecode.Record(inst.A, fields))

	case bytecode.OpMakeEnum:
		payload, err := v.pop()
		if err != nil {
			return err
		}
		return v.push(bytecode.Enum(inst.A, inst.B, payload))

	case bytecode.OpGetField:
		val, err := v.pop()
		if err != nil {
			return err
		}
		if val.Kind() != bytecode.KindRecord {
			return typeError("Record", val.TypeName())
		}
		fields := val.RecordFields()
		if int(inst.A) >= len(fields) {
			return typeError("valid field index", "out of bounds")
		}
		return v.push(fields[inst.A])

	case bytecode.OpSpawnActor:
		childID := v.NextSpawnID
		v.NextSpawnID++
		v.spawnRequests = append(v.spawnRequests, SpawnRequest{FuncIdx: inst.A})
		return v.push(bytecode.ActorID(childID))

	case bytecode.OpSendMsg:
		payload, err := v.pop()
		if err != nil {
			return err
		}
		target, err := v.pop()
		if err != nil {
			return err
		}
		if target.Kind() != bytecode.KindActorID {
			return typeError("ActorId", target.TypeName())
		}
		v.outgoing = append(v.outgoing, OutgoingMessage{To: target.ActorIDValue(), Payload: payload})
		return nil

	case bytecode.OpReceiveMsg:
		if len(v.Mailbox) > 0 {
			msg := v.Mailbox[0]
			v.Mailbox = v.Mailbox[1:]
			return v.push(msg.Payload)
		}
		if v.budgeted {
			// Rewind the PC so resumption re-executes this instruction
			// (spec §4.C: "guaranteeing the next resumption re-executes
			// the receive").
			v.top().ip = ip
			return errMailboxEmpty
		}
		// Legacy unbounded mode: no scheduler will ever deliver a
		// message, so block forever is nonsensical — push Unit and
		// move on, matching original_source's Run()-mode fallback.
		return v.push(bytecode.Unit())

	case bytecode.OpAssert:
		val, err := v.pop()
		if err != nil {
			return err
		}
		if !val.IsTruthy() {
			msg := "assertion failed"
			if c, cerr := v.constant(inst.A); cerr == nil {
				msg = c.String()
			}
			return newError(KindAssertionFailed, "assertion failed: %s", msg)
		}
		return nil

	case bytecode.OpCapCall:
		return v.opCapCall(funcIdx, inst)

	case bytecode.OpAdd:
		return v.binaryOp(addOp)
	case bytecode.OpSub:
		return v.binaryOp(subOp)
	case bytecode.OpMul:
		return v.binaryOp(mulOp)
	case bytecode.OpDiv:
		return v.binaryOp(divOp)
	case bytecode.OpMod:
		return v.binaryOp(modOp)
	case bytecode.OpNeg:
		return v.opNeg()
	case bytecode.OpEq:
		return v.binaryOp(func(a, b bytecode.Value) (bytecode.Value, error) {
			return bytecode.Bool(bytecode.Equal(a, b)), nil
		})
	case bytecode.OpNeq:
		return v.binaryOp(func(a, b bytecode.Value) (bytecode.Value, error) {
			return bytecode.Bool(!bytecode.Equal(a, b)), nil
		})
	case bytecode.OpLt:
		return v.compareOp(func(c int) bool { return c < 0 })
	case bytecode.OpLte:
		return v.compareOp(func(c int) bool { return c <= 0 })
	case bytecode.OpGt:
		return v.compareOp(func(c int) bool { return c > 0 })
	case bytecode.OpGte:
		return v.compareOp(func(c int) bool { return c >= 0 })
	case bytecode.OpNot:
		val, err := v.pop()
		if err != nil {
			return err
		}
		return v.push(bytecode.Bool(!val.IsTruthy()))
	case bytecode.OpAnd:
		return v.binaryOp(func(a, b bytecode.Value) (bytecode.Value, error) {
			return bytecode.Bool(a.IsTruthy() && b.IsTruthy()), nil
		})
	case bytecode.OpOr:
		return v.binaryOp(func(a, b bytecode.Value) (bytecode.Value, error) {
			return bytecode.Bool(a.IsTruthy() || b.IsTruthy()), nil
		})
	case bytecode.OpConcat:
		return v.binaryOp(func(a, b bytecode.Value) (bytecode.Value, error) {
			if a.Kind() != bytecode.KindString || b.Kind() != bytecode.KindString {
				if a.Kind() != bytecode.KindString {
					return bytecode.Value{}, typeError("String", a.TypeName())
				}
				return bytecode.Value{}, typeError("String", b.TypeName())
			}
			return bytecode.Str(a.StringValue() + b.StringValue()), nil
		})

	case bytecode.OpPop:
		_, err := v.pop()
		return err

	case bytecode.OpDup:
		if len(v.stack) == 0 {
			return newError(KindStackUnderflow, "stack underflow")
		}
		return v.push(v.stack[len(v.stack)-1])

	case bytecode.OpEmitUi:
		tree, err := v.pop()
		if err != nil {
			return err
		}
		v.eventLog.LogUiEmit(tree)
		v.UIOutput = append(v.UIOutput, tree)
		return nil

	case bytecode.OpMakeList:
		count := int(inst.A)
		items := make([]bytecode.Value, count)
		for i := count - 1; i >= 0; i-- {
			val, err := v.pop()
			if err != nil {
				return err
			}
			items[i] = val
		}
		return v.push(bytecode.List(items))

	case bytecode.OpListLen:
		return v.opListLen()
	case bytecode.OpListGet:
		return v.opListGet()
	case bytecode.OpListPush:
		return v.opListPush()
	case bytecode.OpParseInt:
		return v.opParseInt()
	case bytecode.OpTryParseInt:
		return v.opTryParseInt()
	case bytecode.OpStrContains:
		return v.opStrContains()
	case bytecode.OpStrStartsWith:
		return v.opStrStartsWith()

	case bytecode.OpNop:
		return nil
	case bytecode.OpHalt:
		val, err := v.pop()
		if err != nil {
			val = bytecode.Unit()
		}
		v.callStack = nil
		return v.push(val)

	default:
		return newError(KindUnknownOpcode, "unknown opcode: 0x%02x", uint8(inst.Op))
	}
}

func (v *Vm) constant(idx uint32) (bytecode.Value, error) {
	if int(idx) >= len(v.module.Constants) {
		return bytecode.Value{}, typeError("valid constant index", "out of bounds")
	}
	return v.module.Constants[idx], nil
}

func (v *Vm) local(idx uint32) (bytecode.Value, error) {
	frame := v.top()
	if int(idx) >= len(frame.locals) {
		return bytecode.Value{}, typeError("valid local index", "out of bounds")
	}
	return frame.locals[idx], nil
}

func (v *Vm) setLocal(idx uint32, val bytecode.Value) error {
	frame := v.top()
	if int(idx) >= len(frame.locals) {
		return typeError("valid local index", "out of bounds")
	}
	frame.locals[idx] = val
	return nil
}

func (v *Vm) opMatch(funcIdx uint32, tableIdx uint32) error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	fn := &v.module.Functions[funcIdx]
	if int(tableIdx) >= len(fn.MatchTables) {
		return newError(KindMatchExhausted, "no match found for value")
	}
	table := fn.MatchTables[tableIdx]

	var tag int32
	switch val.Kind() {
	case bytecode.KindEnum:
		tag = int32(val.Variant())
	case bytecode.KindBool:
		if val.BoolValue() {
			tag = 1
		} else {
			tag = 0
		}
	case bytecode.KindNone:
		tag = -2
	case bytecode.KindSome:
		tag = -3
	case bytecode.KindOk:
		tag = -4
	case bytecode.KindErr:
		tag = -5
	default:
		tag = -1
	}

	for _, arm := range table {
		if arm.Tag == tag || arm.Tag == -1 {
			switch val.Kind() {
			case bytecode.KindEnum, bytecode.KindSome, bytecode.KindOk, bytecode.KindErr:
				if err := v.push(val.Inner()); err != nil {
					return err
				}
			default:
				if err := v.push(val); err != nil {
					return err
				}
			}
			v.top().ip = int(arm.Target)
			return nil
		}
	}
	return newError(KindMatchExhausted, "no match found for value")
}
