package ast

import (
	"encoding/json"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestKindStringKnownAndUnknown(t *testing.T) {
	assert(t, KindCmd.String() == "CMD", "got %q", KindCmd.String())
	assert(t, Kind(0xff).String() == "0xFF", "got %q", Kind(0xff).String())
}

func TestCommandStringKnownAndUnknown(t *testing.T) {
	assert(t, CmdIF.String() == "IF", "got %q", CmdIF.String())
	assert(t, CommandID(0x1234).String() == "0x1234", "got %q", CommandID(0x1234).String())
}

func TestCommandByName(t *testing.T) {
	id, ok := CommandByName("MESG")
	assert(t, ok, "expected MESG to be found")
	assert(t, id == CmdMESG, "got %#x, want %#x", id, CmdMESG)

	_, ok = CommandByName("NOSUCHCOMMAND")
	assert(t, !ok, "expected NOSUCHCOMMAND to be missing")
}

func TestOperatorArity(t *testing.T) {
	assert(t, OpNegate.IsUnary() && !OpNegate.IsBinary(), "NEGATE should be unary")
	assert(t, OpAdd.IsBinary() && !OpAdd.IsUnary(), "ADD should be binary")
	assert(t, !OpNull.IsValid(), "OP_NULL is a terminator, not an operator")
}

func TestIsValidVarSub(t *testing.T) {
	assert(t, IsValidVarSub(KindWord), "WORD should be a valid VAR sub-kind")
	assert(t, !IsValidVarSub(KindCall), "CALL should not be a valid VAR sub-kind")
}

func TestNodeWalkVisitsNestedScript(t *testing.T) {
	leaf := Node{Kind: KindWord, Word: 7}
	cmd := Node{Kind: KindCmd, Cmd: CmdNode{Name: CmdDELAY, Args: []Node{leaf}}}
	root := Node{Kind: KindScript, Script: []Node{cmd}}

	var kinds []Kind
	root.Walk(func(n *Node) bool {
		kinds = append(kinds, n.Kind)
		return true
	})
	assert(t, len(kinds) == 3, "got %d visited nodes, want 3", len(kinds))
	assert(t, kinds[0] == KindScript && kinds[1] == KindCmd && kinds[2] == KindWord,
		"unexpected visit order: %v", kinds)
}

func TestNodeJSONRoundTrip(t *testing.T) {
	original := Node{
		Kind: KindCmd,
		Cmd: CmdNode{
			Name: CmdIF,
			Args: []Node{
				{Kind: KindOp, Op: &OpNode{
					Operator: OpEquals,
					Operands: [2]Node{
						{Kind: KindWord, Word: 1},
						{Kind: KindByte, Byte_: 2},
					},
				}},
				{Kind: KindTable, Table: TableValue{IsName: true, Name: "CAMERA_01"}},
			},
		},
	}

	data, err := json.Marshal(original)
	assert(t, err == nil, "Marshal: %v", err)

	var decoded Node
	assert(t, json.Unmarshal(data, &decoded) == nil, "Unmarshal failed")

	assert(t, decoded.Kind == KindCmd, "kind mismatch")
	assert(t, decoded.Cmd.Name == CmdIF, "command mismatch")
	assert(t, len(decoded.Cmd.Args) == 2, "got %d args, want 2", len(decoded.Cmd.Args))
	assert(t, decoded.Cmd.Args[0].Op.Operator == OpEquals, "operator mismatch")
	assert(t, decoded.Cmd.Args[1].Table.IsName && decoded.Cmd.Args[1].Table.Name == "CAMERA_01",
		"table value mismatch: %+v", decoded.Cmd.Args[1].Table)
}

func TestErrorMessages(t *testing.T) {
	var err error = &UnexpectedOpcodeError{Context: "CMD", Code: 0x99, Offset: 4}
	assert(t, err.Error() != "", "expected non-empty message")

	err = &FramingViolationError{Where: "SCRIPT", Expected: 10, Actual: 9}
	assert(t, err.Error() != "", "expected non-empty message")
}
