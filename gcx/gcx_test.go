package gcx

import (
	"bytes"
	"testing"

	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func roundTrip(t *testing.T, n ast.Node) ast.Node {
	t.Helper()
	encoded, err := Encode(n)
	assert(t, err == nil, "Encode: %v", err)

	dec := NewDecoder(buffer.New(encoded))
	got, err := dec.DecodeNode()
	assert(t, err == nil, "DecodeNode: %v", err)
	return got
}

func TestWordRoundTrip(t *testing.T) {
	n := ast.Node{Kind: ast.KindWord, Word: 0x1234}
	got := roundTrip(t, n)
	assert(t, got.Kind == ast.KindWord && got.Word == 0x1234, "got %+v", got)
}

func TestVarRoundTrip(t *testing.T) {
	n := ast.Node{Kind: ast.KindVar, Var: ast.VarRef{Sub: ast.KindByte, ID: "0a1b2c"}}
	got := roundTrip(t, n)
	assert(t, got.Kind == ast.KindVar, "kind mismatch: %v", got.Kind)
	assert(t, got.Var.Sub == ast.KindByte, "sub mismatch: %v", got.Var.Sub)
	assert(t, got.Var.ID == "0a1b2c", "id mismatch: %q", got.Var.ID)
}

func TestStrRoundTrip(t *testing.T) {
	n := ast.Node{Kind: ast.KindStr, Str: "hello"}
	got := roundTrip(t, n)
	assert(t, got.Str == "hello", "got %q", got.Str)
}

func TestExprSingleOperandWrapsNoOp(t *testing.T) {
	n := ast.Node{Kind: ast.KindExpr, Expr: []ast.Node{{Kind: ast.KindWord, Word: 7}}}
	got := roundTrip(t, n)
	assert(t, got.Kind == ast.KindExpr, "kind mismatch")
	assert(t, len(got.Expr) == 1 && got.Expr[0].Word == 7, "got %+v", got.Expr)
}

func TestExprEmptyBodyRoundTrip(t *testing.T) {
	// An EXPR holding nothing but its terminator: opcode, length byte,
	// OP, OP_NULL. It decodes to an empty operand list and re-encodes to
	// the same four bytes.
	n := ast.Node{Kind: ast.KindExpr}
	encoded, err := Encode(n)
	assert(t, err == nil, "Encode: %v", err)

	want := []byte{byte(ast.KindExpr), 0x03, byte(ast.KindOp), byte(ast.OpNull)}
	assert(t, bytes.Equal(encoded, want), "got % x, want % x", encoded, want)

	got := roundTrip(t, n)
	assert(t, got.Kind == ast.KindExpr && len(got.Expr) == 0, "got %+v", got)
}

func TestExprPostfixBytesForAddition(t *testing.T) {
	// arg1 + arg2 flattens to postfix ARG(0) ARG(1) OP(ADD) OP(OP_NULL).
	n := ast.Node{
		Kind: ast.KindExpr,
		Expr: []ast.Node{
			{Kind: ast.KindOp, Op: &ast.OpNode{
				Operator: ast.OpAdd,
				Operands: [2]ast.Node{
					{Kind: ast.KindArg, Arg: 0},
					{Kind: ast.KindArg, Arg: 1},
				},
			}},
		},
	}
	encoded, err := Encode(n)
	assert(t, err == nil, "Encode: %v", err)

	want := []byte{
		byte(ast.KindExpr), 0x09,
		byte(ast.KindArg), 0x00,
		byte(ast.KindArg), 0x01,
		byte(ast.KindOp), byte(ast.OpAdd),
		byte(ast.KindOp), byte(ast.OpNull),
	}
	assert(t, bytes.Equal(encoded, want), "got % x, want % x", encoded, want)
}

func TestExprBinaryOperatorReduces(t *testing.T) {
	// 1 + 2 encoded postfix: WORD(1) WORD(2) OP(ADD) OP(OP_NULL)
	n := ast.Node{
		Kind: ast.KindExpr,
		Expr: []ast.Node{
			{Kind: ast.KindOp, Op: &ast.OpNode{
				Operator: ast.OpAdd,
				Operands: [2]ast.Node{
					{Kind: ast.KindWord, Word: 1},
					{Kind: ast.KindWord, Word: 2},
				},
			}},
		},
	}
	got := roundTrip(t, n)
	assert(t, len(got.Expr) == 1, "got %d top-level operands, want 1", len(got.Expr))
	op := got.Expr[0]
	assert(t, op.Kind == ast.KindOp && op.Op.Operator == ast.OpAdd, "got %+v", op)
	assert(t, op.Op.Operands[0].Word == 1 && op.Op.Operands[1].Word == 2, "operand mismatch: %+v", op.Op.Operands)
}

func TestScriptRoundTrip(t *testing.T) {
	n := ast.Node{
		Kind: ast.KindScript,
		Script: []ast.Node{
			{Kind: ast.KindCmd, Cmd: ast.CmdNode{Name: ast.CmdDELAY, Args: []ast.Node{{Kind: ast.KindWord, Word: 30}}}},
		},
	}
	got := roundTrip(t, n)
	assert(t, len(got.Script) == 1, "got %d statements, want 1", len(got.Script))
	assert(t, got.Script[0].Cmd.Name == ast.CmdDELAY, "command mismatch")
}

func TestScriptNoBracesDropsTrailingByte(t *testing.T) {
	plain := ast.Node{Kind: ast.KindScript, Script: []ast.Node{{Kind: ast.KindWord, Word: 1}}}
	braceless := plain
	braceless.NoBraces = true

	plainBytes, err := Encode(plain)
	assert(t, err == nil, "Encode: %v", err)
	bracelessBytes, err := Encode(braceless)
	assert(t, err == nil, "Encode: %v", err)

	assert(t, len(bracelessBytes) == len(plainBytes)-1,
		"braceless encoding should be 1 byte shorter: got %d vs %d", len(bracelessBytes), len(plainBytes))
}

func TestCallRoundTrip(t *testing.T) {
	n := ast.Node{Kind: ast.KindCall, Call: ast.CallNode{ProcID: 42, Args: []ast.Node{{Kind: ast.KindWord, Word: 5}}}}
	got := roundTrip(t, n)
	assert(t, got.Call.ProcID == 42, "proc id mismatch")
	assert(t, len(got.Call.Args) == 1 && got.Call.Args[0].Word == 5, "args mismatch: %+v", got.Call.Args)
}

func TestOptionNullSizePreserved(t *testing.T) {
	n := ast.Node{Kind: ast.KindOption, Option: ast.OptionNode{Letter: 'e'}, NullSize: true}
	encoded, err := Encode(n)
	assert(t, err == nil, "Encode: %v", err)
	// opcode, letter, size(==0)
	assert(t, len(encoded) == 3 && encoded[2] == 0, "got %v, want size byte 0", encoded)
}

func TestCmdEncodeIsByteExactForKnownFixture(t *testing.T) {
	// A minimal DELAY(30) command, hand-traced against the original
	// compiler's byte layout: CMD opcode, 2-byte total size, command id,
	// 1-byte args size, WORD arg, terminator.
	n := ast.Node{Kind: ast.KindCmd, Cmd: ast.CmdNode{Name: ast.CmdDELAY, Args: []ast.Node{{Kind: ast.KindWord, Word: 30}}}}
	encoded, err := Encode(n)
	assert(t, err == nil, "Encode: %v", err)

	want := []byte{
		byte(ast.KindCmd),
		0x00, 0x09, // total size = 9 (command id(2) + args_size byte(1) + WORD node(3) + terminator(1) + 2)
		0x43, 0x0d, // DELAY = 0x430d
		0x04,       // args_size = 3(word node)+1
		byte(ast.KindWord), 0x00, 0x1e,
		0x00, // terminator
	}
	assert(t, bytes.Equal(encoded, want), "got % x, want % x", encoded, want)
}
