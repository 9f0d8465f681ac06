package bytecode

// OpCode identifies an instruction. The tag space is stable (spec §6);
// new opcodes are appended to unused positions within their range.
//
// Functions store a decoded []Instruction, not a raw byte stream — the
// byte tags below matter only for the wire encoding of a Module (the
// canonical-JSON payload inside an .axbc file serializes these tags)
// and for disassembly, mirroring original_source's llmbc/src/opcode.rs
// Op::to_byte_tag exactly.
type OpCode uint8

const (
	OpPushConst    OpCode = 0x01
	OpLoadLocal    OpCode = 0x02
	OpStoreLocal   OpCode = 0x03
	OpLoadGlobal   OpCode = 0x04
	OpStoreGlobal  OpCode = 0x05
	OpCall         OpCode = 0x06
	OpRet          OpCode = 0x07
	OpJmp          OpCode = 0x08
	OpJmpIf        OpCode = 0x09
	OpJmpIfNot     OpCode = 0x0A
	OpMatch        OpCode = 0x0B
	OpMakeRecord   OpCode = 0x0C
	OpMakeEnum     OpCode = 0x0D
	OpGetField     OpCode = 0x0E
	OpSpawnActor   OpCode = 0x0F
	OpSendMsg      OpCode = 0x10
	OpReceiveMsg   OpCode = 0x11
	OpAssert       OpCode = 0x12
	OpCapCall      OpCode = 0x13
	OpAdd          OpCode = 0x20
	OpSub          OpCode = 0x21
	OpMul          OpCode = 0x22
	OpDiv          OpCode = 0x23
	OpMod          OpCode = 0x24
	OpNeg          OpCode = 0x25
	OpEq           OpCode = 0x30
	OpNeq          OpCode = 0x31
	OpLt           OpCode = 0x32
	OpLte          OpCode = 0x33
	OpGt           OpCode = 0x34
	OpGte          OpCode = 0x35
	OpNot          OpCode = 0x40
	OpAnd          OpCode = 0x41
	OpOr           OpCode = 0x42
	OpConcat       OpCode = 0x50
	OpPop          OpCode = 0x60
	OpDup          OpCode = 0x61
	OpEmitUi       OpCode = 0x70
	OpMakeList     OpCode = 0x80
	OpListLen      OpCode = 0x81
	OpListGet      OpCode = 0x82
	OpListPush     OpCode = 0x83
	OpParseInt     OpCode = 0x84
	OpStrContains  OpCode = 0x85
	OpStrStartsWith OpCode = 0x86
	OpTryParseInt  OpCode = 0x87
	OpNop          OpCode = 0xFE
	OpHalt         OpCode = 0xFF
)

var opNames = map[OpCode]string{
	OpPushConst: "PUSH_CONST", OpLoadLocal: "LOAD_LOCAL", OpStoreLocal: "STORE_LOCAL",
	OpLoadGlobal: "LOAD_GLOBAL", OpStoreGlobal: "STORE_GLOBAL", OpCall: "CALL", OpRet: "RET",
	OpJmp: "JMP", OpJmpIf: "JMP_IF", OpJmpIfNot: "JMP_IF_NOT", OpMatch: "MATCH",
	OpMakeRecord: "MAKE_RECORD", OpMakeEnum: "MAKE_ENUM", OpGetField: "GET_FIELD",
	OpSpawnActor: "SPAWN_ACTOR", OpSendMsg: "SEND_MSG", OpReceiveMsg: "RECEIVE_MSG",
	OpAssert: "ASSERT", OpCapCall: "CAP_CALL",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD", OpNeg: "NEG",
	OpEq: "EQ", OpNeq: "NEQ", OpLt: "LT", OpLte: "LTE", OpGt: "GT", OpGte: "GTE",
	OpNot: "NOT", OpAnd: "AND", OpOr: "OR", OpConcat: "CONCAT",
	OpPop: "POP", OpDup: "DUP", OpEmitUi: "EMIT_UI",
	OpMakeList: "MAKE_LIST", OpListLen: "LIST_LEN", OpListGet: "LIST_GET", OpListPush: "LIST_PUSH",
	OpParseInt: "PARSE_INT", OpStrContains: "STR_CONTAINS", OpStrStartsWith: "STR_STARTS_WITH",
	OpTryParseInt: "TRY_PARSE_INT", OpNop: "NOP", OpHalt: "HALT",
}

func (op OpCode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}

// MatchArm is one arm of a Match instruction's jump table. Tag -1 is the
// wildcard arm; any other tag is compared against the matched value's
// variant/shape (see pkg/vm's Match handling).
type MatchArm struct {
	Tag    int32  `json:"tag"`
	Target uint32 `json:"target"`
}

// Instruction is one decoded bytecode instruction. Only the operand
// fields relevant to Op are meaningful; this mirrors
// original_source's llmbc::opcode::Op enum, flattened into one struct
// because Go lacks tagged-union enums with per-variant payloads.
type Instruction struct {
	Op OpCode `json:"op"`

	// Operand A: const/local/global/function index, jump target, cap id,
	// match-table index, type id — meaning depends on Op.
	A uint32 `json:"a,omitempty"`
	// Operand B: arity / field count / variant index — meaning depends on Op.
	B uint8 `json:"b,omitempty"`
}
