// Package gcx decodes and re-encodes the GCL procedure bytecode (the
// opcode family stored in .GCX files) into and out of ast.Node trees.
//
// A single long-lived struct holds the input buffer and caller-settable
// options, walked by a recursive-descent decoder. GCX framing is
// self-describing (every composite node carries its own length prefix),
// so decode is a single top-down walk.
package gcx

import (
	"fmt"

	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
	"github.com/g-e-o/mgs-compilation-tools/resolver"
)

// Decoder turns GCX bytes into an ast.Node tree, one procedure body at a
// time. The command stack mirrors the original decompiler's need to know
// which enclosing CMD a TABLE leaf belongs to, since RADIO/SOUND/DEMO
// commands each interpret a TABLE value's 4 bytes differently; it also
// tells option decoding when it is inside an IF, for braceless bodies.
type Decoder struct {
	buf          *buffer.Buffer
	commandStack []ast.CommandID

	// Resolver, when set, rewrites TABLE leaves under RADIO, SOUND and
	// DEMO commands from numeric values to symbolic names. Left nil, every
	// TABLE decodes to its literal.
	Resolver resolver.Resolver
}

// NewDecoder builds a Decoder over buf. buf's cursor is positioned by the
// caller before calling DecodeNode (procedure-file framing is handled by
// File, not here).
func NewDecoder(buf *buffer.Buffer) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) currentCommand() (ast.CommandID, bool) {
	if len(d.commandStack) == 0 {
		return 0, false
	}
	return d.commandStack[len(d.commandStack)-1], true
}

// DecodeNode decodes exactly one node from the buffer's current cursor
// position, recursing into children as needed. Returns ast.KindNull for a
// zero opcode byte with no error — callers treat it as an end-of-sequence
// sentinel, the same contract the original decompiler's None return had.
func (d *Decoder) DecodeNode() (ast.Node, error) {
	offset := d.buf.Offset
	code, err := d.buf.ReadU8()
	if err != nil {
		return ast.Node{}, err
	}

	if ast.Kind(code)&0xF0 == ast.KindVar && ast.Kind(code) != ast.KindVar {
		return d.decodeVar(ast.Kind(code))
	}

	switch ast.Kind(code) {
	case ast.KindNull:
		return ast.Node{Kind: ast.KindNull}, nil

	case ast.KindWord:
		v, err := d.buf.ReadU16()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindWord, Word: v}, nil

	case ast.KindByte:
		v, err := d.buf.ReadU8()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindByte, Byte_: v}, nil

	case ast.KindChar:
		v, err := d.buf.ReadU8()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindChar, Char: v}, nil

	case ast.KindFlag:
		v, err := d.buf.ReadU8()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindFlag, Flag: v == 1}, nil

	case ast.KindStrID:
		v, err := d.buf.ReadU16()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindStrID, StrID: v}, nil

	case ast.KindStr:
		size, err := d.buf.ReadU8()
		if err != nil {
			return ast.Node{}, err
		}
		_ = size // the original string length byte is not trustworthy; ReadString scans to NUL
		s, err := d.buf.ReadString()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindStr, Str: s}, nil

	case ast.KindProc:
		v, err := d.buf.ReadU16()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindProc, Proc: v}, nil

	case ast.KindSDCode:
		v, err := d.buf.ReadU32()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindSDCode, SDCode: v}, nil

	case ast.KindTable:
		v, err := d.buf.ReadU32()
		if err != nil {
			return ast.Node{}, err
		}
		table, err := d.resolveTable(v)
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindTable, Table: table}, nil

	case ast.KindArg:
		v, err := d.buf.ReadU8()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindArg, Arg: v}, nil

	case ast.KindExpr:
		return d.decodeExpr()

	case ast.KindOp:
		op, err := d.buf.ReadU8()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.Node{Kind: ast.KindOp, Op: &ast.OpNode{Operator: ast.OperatorCode(op)}}, nil

	case ast.KindScript:
		return d.decodeScript()

	case ast.KindOption:
		return d.decodeOption()

	case ast.KindCmd:
		return d.decodeCmd()

	case ast.KindCall:
		return d.decodeCall()

	default:
		return ast.Node{}, &ast.UnexpectedOpcodeError{Context: "GCL node", Code: uint32(code), Offset: offset}
	}
}

// resolveTable rewrites a TABLE literal into a symbolic name based on
// the enclosing command. A RADIO reference that matches no known dialog
// offset stays numeric; a SOUND or DEMO reference that cannot be named
// is fatal, since the re-encoded value would silently point at the wrong
// archive block. The 0xFFFFFFFF sentinel under DEMO is never looked up.
func (d *Decoder) resolveTable(v uint32) (ast.TableValue, error) {
	literal := ast.TableValue{Literal: v}
	if d.Resolver == nil {
		return literal, nil
	}
	cmd, ok := d.currentCommand()
	if !ok {
		return literal, nil
	}
	switch cmd {
	case ast.CmdRADIO:
		if name, ok := d.Resolver.RadioNameOfOffset(int(v&0xffff) * 0x800); ok {
			return ast.TableValue{IsName: true, Name: name}, nil
		}
	case ast.CmdSOUND:
		name, ok := d.Resolver.NameOfVox(v)
		if !ok {
			return ast.TableValue{}, &ast.UnresolvedReferenceError{Space: "vox", Key: fmt.Sprintf("%#x", v)}
		}
		return ast.TableValue{IsName: true, Name: name}, nil
	case ast.CmdDEMO:
		if v == 0xffffffff {
			return literal, nil
		}
		name, ok := d.Resolver.NameOfDemo(v)
		if !ok {
			return ast.TableValue{}, &ast.UnresolvedReferenceError{Space: "demo", Key: fmt.Sprintf("%#x", v)}
		}
		return ast.TableValue{IsName: true, Name: name}, nil
	}
	return literal, nil
}

func (d *Decoder) decodeVar(code ast.Kind) (ast.Node, error) {
	sub := code & 0xF
	if !ast.IsValidVarSub(sub) {
		return ast.Node{}, &ast.UnexpectedOpcodeError{Context: "VAR sub-kind", Code: uint32(sub), Offset: d.buf.Offset}
	}
	id, err := d.buf.ReadHex(3)
	if err != nil {
		return ast.Node{}, err
	}
	return ast.Node{Kind: ast.KindVar, Var: ast.VarRef{Sub: sub, ID: id}}, nil
}

// decodeExpr decodes a postfix expression stream into the operand stack's
// final contents, collapsing OP nodes against their two preceding operands
// as it goes.
func (d *Decoder) decodeExpr() (ast.Node, error) {
	sizeByte, err := d.buf.ReadU8()
	if err != nil {
		return ast.Node{}, err
	}
	size := int(sizeByte) - 1
	end := d.buf.Offset + size

	var operands []ast.Node
	for d.buf.Offset < end {
		n, err := d.DecodeNode()
		if err != nil {
			return ast.Node{}, err
		}
		if n.Kind == ast.KindOp {
			if n.Op.Operator == ast.OpNull {
				break
			}
			if len(operands) < 2 {
				return ast.Node{}, &ast.InvariantViolationError{Message: "EXPR operator with fewer than 2 operands on the stack"}
			}
			lhs, rhs := operands[len(operands)-2], operands[len(operands)-1]
			operands = operands[:len(operands)-2]
			operands = append(operands, ast.Node{
				Kind: ast.KindOp,
				Op:   &ast.OpNode{Operator: n.Op.Operator, Operands: [2]ast.Node{lhs, rhs}},
			})
		} else {
			operands = append(operands, n)
		}
	}

	return ast.Node{Kind: ast.KindExpr, Expr: operands}, nil
}

func (d *Decoder) decodeScript() (ast.Node, error) {
	sizeWord, err := d.buf.ReadU16()
	if err != nil {
		return ast.Node{}, err
	}
	size := int(sizeWord) - 2
	end := d.buf.Offset + size

	var stmts []ast.Node
	for d.buf.Offset < end {
		n, err := d.DecodeNode()
		if err != nil {
			return ast.Node{}, err
		}
		if n.Kind == ast.KindNull {
			break
		}
		stmts = append(stmts, n)
	}
	return ast.Node{Kind: ast.KindScript, Script: stmts}, nil
}

func (d *Decoder) decodeOption() (ast.Node, error) {
	letter, err := d.buf.ReadU8()
	if err != nil {
		return ast.Node{}, err
	}
	sizeByte, err := d.buf.ReadU8()
	if err != nil {
		return ast.Node{}, err
	}
	size := int(sizeByte) - 1

	var args []ast.Node
	for {
		peek, err := d.buf.ReadU8At(d.buf.Offset)
		if err != nil {
			return ast.Node{}, err
		}
		if peek == 0 || ast.Kind(peek) == ast.KindOption {
			break
		}

		optionOffset := d.buf.Offset
		val, err := d.DecodeNode()
		if err != nil {
			return ast.Node{}, err
		}
		if val.Kind == ast.KindNull {
			break
		}

		// Detect a braceless elseif/else body: its SCRIPT length implies
		// one fewer byte than the OPTION declared, because the original
		// compiler omits the closing-brace NUL in that case.
		cmd, ok := d.currentCommand()
		if ok && cmd == ast.CmdIF && val.Kind == ast.KindScript {
			scriptSize, err := d.buf.ReadU16At(optionOffset + 1)
			if err != nil {
				return ast.Node{}, err
			}
			if int(scriptSize)+2-size == 1 {
				val.NoBraces = true
			}
		}

		args = append(args, val)
	}

	node := ast.Node{Kind: ast.KindOption, Option: ast.OptionNode{Letter: letter, Args: args}}
	if size == -1 && len(args) > 0 {
		node.NullSize = true
	}
	return node, nil
}

func (d *Decoder) decodeCmd() (ast.Node, error) {
	sizeWord, err := d.buf.ReadU16()
	if err != nil {
		return ast.Node{}, err
	}
	size := int(sizeWord) - 2
	end := d.buf.Offset + size

	commandWord, err := d.buf.ReadU16()
	if err != nil {
		return ast.Node{}, err
	}
	commandID := ast.CommandID(commandWord)
	d.commandStack = append(d.commandStack, commandID)
	defer func() { d.commandStack = d.commandStack[:len(d.commandStack)-1] }()

	argsSizeByte, err := d.buf.ReadU8()
	if err != nil {
		return ast.Node{}, err
	}
	argsSize := int(argsSizeByte) - 1
	argsEnd := d.buf.Offset + argsSize

	var args []ast.Node
	for {
		peek, err := d.buf.ReadU8At(d.buf.Offset)
		if err != nil {
			return ast.Node{}, err
		}
		if peek == 0 {
			break
		}
		arg, err := d.DecodeNode()
		if err != nil {
			return ast.Node{}, err
		}
		if arg.Kind == ast.KindNull {
			break
		}
		args = append(args, arg)
	}

	// IF with a braceless body loses one byte from args_size on re-encode;
	// detect it the same way the original does, by the args cursor landing
	// exactly on argsEnd instead of one short of it.
	if commandID == ast.CmdIF && argsEnd-d.buf.Offset == 0 && len(args) >= 2 {
		args[1].NoBraces = true
	}

	var options []ast.Node
	for d.buf.Offset < end {
		opt, err := d.DecodeNode()
		if err != nil {
			return ast.Node{}, err
		}
		if opt.Kind == ast.KindNull {
			break
		}
		options = append(options, opt)
	}

	return ast.Node{Kind: ast.KindCmd, Cmd: ast.CmdNode{Name: commandID, Args: append(args, options...)}}, nil
}

func (d *Decoder) decodeCall() (ast.Node, error) {
	sizeByte, err := d.buf.ReadU8()
	if err != nil {
		return ast.Node{}, err
	}
	size := int(sizeByte) - 1
	end := d.buf.Offset + size

	procID, err := d.buf.ReadU16()
	if err != nil {
		return ast.Node{}, err
	}

	var args []ast.Node
	for d.buf.Offset < end {
		arg, err := d.DecodeNode()
		if err != nil {
			return ast.Node{}, err
		}
		if arg.Kind == ast.KindNull {
			break
		}
		args = append(args, arg)
	}

	return ast.Node{Kind: ast.KindCall, Call: ast.CallNode{ProcID: procID, Args: args}}, nil
}
