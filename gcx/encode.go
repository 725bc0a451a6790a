package gcx

import (
	"strings"

	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
	"github.com/g-e-o/mgs-compilation-tools/resolver"
)

// Encoder serializes ast.Node trees back into GCX bytes, reproducing the
// original compiler's byte-for-byte output including its known
// size-patching quirks. It is the inverse of Decoder.DecodeNode: for any
// node a Decoder produced, the Encoder reproduces the bytes it was
// decoded from.
type Encoder struct {
	// Resolver translates symbolic TABLE names (rd_*, vc*, s*) back to
	// their numeric values. Left nil, any named TABLE is an error.
	Resolver resolver.Resolver
}

// NewEncoder builds an Encoder with no resolver attached.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode serializes one node, without symbolic-name resolution. Trees
// containing named TABLE leaves need an Encoder with a Resolver instead.
func Encode(n ast.Node) ([]byte, error) {
	return NewEncoder().Encode(n)
}

// Encode serializes n into GCX bytes.
func (e *Encoder) Encode(n ast.Node) ([]byte, error) {
	w := buffer.NewWriter()
	if err := e.encodeNode(w, n); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (e *Encoder) encodeNode(w *buffer.Buffer, n ast.Node) error {
	body := buffer.NewWriter()

	switch n.Kind {
	case ast.KindNull:
		w.WriteU8(byte(ast.KindNull))
		return nil

	case ast.KindWord:
		body.WriteU16(n.Word)

	case ast.KindByte:
		body.WriteU8(n.Byte_)

	case ast.KindChar:
		body.WriteU8(n.Char)

	case ast.KindFlag:
		v := byte(0)
		if n.Flag {
			v = 1
		}
		body.WriteU8(v)

	case ast.KindStrID:
		body.WriteU16(n.StrID)

	case ast.KindStr:
		encoded, err := buffer.EncodeString(n.Str)
		if err != nil {
			return err
		}
		body.WriteU8(byte(len(encoded)))
		body.WriteBytes(encoded)

	case ast.KindProc:
		body.WriteU16(n.Proc)

	case ast.KindSDCode:
		body.WriteU32(n.SDCode)

	case ast.KindTable:
		v, err := e.resolveTable(n.Table)
		if err != nil {
			return err
		}
		body.WriteU32(v)

	case ast.KindVar:
		if len(n.Var.ID) != 6 {
			return &ast.InvariantViolationError{Message: "VAR id " + n.Var.ID + " is not 6 hex digits"}
		}
		w.WriteU8(byte(ast.KindVar) | byte(n.Var.Sub))
		return w.WriteHex(n.Var.ID)

	case ast.KindArg:
		body.WriteU8(n.Arg)

	case ast.KindExpr:
		return e.encodeExpr(w, n)

	case ast.KindOp:
		return e.encodeOp(w, n)

	case ast.KindScript:
		return e.encodeScript(w, n)

	case ast.KindOption:
		return e.encodeOption(w, n)

	case ast.KindCmd:
		return e.encodeCmd(w, n)

	case ast.KindCall:
		return e.encodeCall(w, n)

	default:
		return &ast.UnexpectedOpcodeError{Context: "GCL node encode", Code: uint32(n.Kind)}
	}

	w.WriteU8(byte(n.Kind))
	w.WriteBytes(body.Bytes())
	return nil
}

// resolveTable turns a symbolic TABLE payload back into its 32-bit
// value. The name space is chosen by prefix, exactly as the original
// compiler does: rd_* is a radio call descriptor, vc* a VOX block
// index, s* a DEMO block index.
func (e *Encoder) resolveTable(t ast.TableValue) (uint32, error) {
	if !t.IsName {
		return t.Literal, nil
	}
	if e.Resolver == nil {
		return 0, &ast.UnresolvedReferenceError{Space: "table", Key: t.Name}
	}
	lower := strings.ToLower(t.Name)
	switch {
	case strings.HasPrefix(lower, "rd_"):
		if call, ok := e.Resolver.CallDescriptorOfRadio(t.Name); ok {
			return call, nil
		}
		return 0, &ast.UnresolvedReferenceError{Space: "radio", Key: t.Name}
	case strings.HasPrefix(lower, "vc"):
		if block, ok := e.Resolver.BlockIndexOfVox(t.Name); ok {
			return block, nil
		}
		return 0, &ast.UnresolvedReferenceError{Space: "vox", Key: t.Name}
	case strings.HasPrefix(lower, "s"):
		if block, ok := e.Resolver.BlockIndexOfDemo(t.Name); ok {
			return block, nil
		}
		return 0, &ast.UnresolvedReferenceError{Space: "demo", Key: t.Name}
	}
	return 0, &ast.UnresolvedReferenceError{Space: "table", Key: t.Name}
}

// encodeExpr rebuilds the postfix stream from a reduced operand tree:
// each operand encodes itself, and each OP node is emitted by recursing
// into its two operands first, then appending the operator byte, the
// inverse of decodeExpr's stack reduction.
func (e *Encoder) encodeExpr(w *buffer.Buffer, n ast.Node) error {
	expr := buffer.NewWriter()
	for _, operand := range n.Expr {
		if err := e.encodeNode(expr, operand); err != nil {
			return err
		}
	}
	expr.WriteU8(byte(ast.KindOp))
	expr.WriteU8(byte(ast.OpNull))

	w.WriteU8(byte(ast.KindExpr))
	w.WriteU8(byte(len(expr.Bytes()) + 1))
	w.WriteBytes(expr.Bytes())
	return nil
}

func (e *Encoder) encodeOp(w *buffer.Buffer, n ast.Node) error {
	if err := e.encodeNode(w, n.Op.Operands[0]); err != nil {
		return err
	}
	if err := e.encodeNode(w, n.Op.Operands[1]); err != nil {
		return err
	}
	w.WriteU8(byte(ast.KindOp))
	w.WriteU8(byte(n.Op.Operator))
	return nil
}

func (e *Encoder) encodeScript(w *buffer.Buffer, n ast.Node) error {
	script := buffer.NewWriter()
	for _, stmt := range n.Script {
		if err := e.encodeNode(script, stmt); err != nil {
			return err
		}
	}
	script.WriteU8(0)

	scriptBytes := script.Bytes()
	size := len(scriptBytes) + 2
	if n.NoBraces {
		// The original compiler drops its own trailing NUL when it
		// recorded a braceless elseif/else or if-body.
		scriptBytes = scriptBytes[:len(scriptBytes)-1]
	}

	w.WriteU8(byte(ast.KindScript))
	w.WriteU16(uint16(size))
	w.WriteBytes(scriptBytes)
	return nil
}

func (e *Encoder) encodeOption(w *buffer.Buffer, n ast.Node) error {
	values := buffer.NewWriter()
	for _, arg := range n.Option.Args {
		if err := e.encodeNode(values, arg); err != nil {
			return err
		}
	}

	w.WriteU8(byte(ast.KindOption))
	w.WriteU8(n.Option.Letter)

	size := len(values.Bytes()) + 1
	if n.NullSize {
		size = 0
	}
	w.WriteU8(byte(size))
	w.WriteBytes(values.Bytes())
	return nil
}

func (e *Encoder) encodeCmd(w *buffer.Buffer, n ast.Node) error {
	command := buffer.NewWriter()
	command.WriteU16(uint16(n.Cmd.Name))

	var argNodes, optionNodes []ast.Node
	for _, a := range n.Cmd.Args {
		if a.Kind == ast.KindOption {
			optionNodes = append(optionNodes, a)
		} else {
			argNodes = append(argNodes, a)
		}
	}

	commandArgs := buffer.NewWriter()
	for _, a := range argNodes {
		if err := e.encodeNode(commandArgs, a); err != nil {
			return err
		}
	}

	argsSize := len(commandArgs.Bytes()) + 1
	if n.Cmd.Name == ast.CmdIF && len(n.Cmd.Args) == 2 {
		argsSize++
	}

	commandOptions := buffer.NewWriter()
	for i, opt := range optionNodes {
		optBytes := buffer.NewWriter()
		if err := e.encodeNode(optBytes, opt); err != nil {
			return err
		}
		encoded := optBytes.Bytes()

		// Patch elseif/else trailing option sizes: the last elseif/else
		// option in an IF command's byte stream records one byte more
		// than its body actually occupies.
		if n.Cmd.Name == ast.CmdIF && i == len(optionNodes)-1 && len(encoded) >= 3 {
			letter := opt.Option.Letter
			if (letter == 'i' && len(opt.Option.Args) == 2) || (letter == 'e' && len(opt.Option.Args) == 1) {
				encoded[2]++
			}
		}
		commandOptions.WriteBytes(encoded)
	}

	command.WriteU8(byte(argsSize))
	command.WriteBytes(commandArgs.Bytes())
	command.WriteBytes(commandOptions.Bytes())
	command.WriteU8(0)

	w.WriteU8(byte(ast.KindCmd))
	w.WriteU16(uint16(len(command.Bytes()) + 2))
	w.WriteBytes(command.Bytes())
	return nil
}

func (e *Encoder) encodeCall(w *buffer.Buffer, n ast.Node) error {
	call := buffer.NewWriter()
	call.WriteU16(n.Call.ProcID)
	for _, arg := range n.Call.Args {
		if err := e.encodeNode(call, arg); err != nil {
			return err
		}
	}
	call.WriteU8(0)

	w.WriteU8(byte(ast.KindCall))
	w.WriteU8(byte(len(call.Bytes()) + 1))
	w.WriteBytes(call.Bytes())
	return nil
}
