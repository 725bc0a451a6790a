// Package ast defines the tagged-union AST node shared by the GCX and RADIO
// codecs, the opcode/command/operator tables those codecs decode against,
// and the error kinds both codecs raise.
//
// A node is represented as one struct with a Kind tag rather than as an
// interface with one implementation per opcode: the wire format is a
// closed set of ~18 tags with no extension point, so exhaustive type-switching
// over an interface buys nothing a single tagged struct doesn't already
// give via a switch on Kind — and it avoids the "which concrete type did I
// get" boilerplate tagged unions exist to remove in the first place.
package ast

// Kind is the one-byte wire opcode tag for a GCX AST node.
type Kind byte

// GCX node kinds, numeric value is the on-wire opcode.
const (
	KindNull   Kind = 0
	KindWord   Kind = 1
	KindByte   Kind = 2
	KindChar   Kind = 3
	KindFlag   Kind = 4
	KindStrID  Kind = 6
	KindStr    Kind = 7
	KindProc   Kind = 8
	KindSDCode Kind = 9
	KindTable  Kind = 10
	KindVar    Kind = 0x10
	KindArg    Kind = 0x20
	KindExpr   Kind = 0x30
	KindOp     Kind = 0x31
	KindScript Kind = 0x40
	KindOption Kind = 0x50
	KindCmd    Kind = 0x60
	KindCall   Kind = 0x70
)

var kindNames = map[Kind]string{
	KindNull:   "GCL_NULL",
	KindWord:   "WORD",
	KindByte:   "BYTE",
	KindChar:   "CHAR",
	KindFlag:   "FLAG",
	KindStrID:  "STR_ID",
	KindStr:    "STR",
	KindProc:   "PROC",
	KindSDCode: "SD_CODE",
	KindTable:  "TABLE",
	KindVar:    "VAR",
	KindArg:    "ARG",
	KindExpr:   "EXPR",
	KindOp:     "OP",
	KindScript: "SCRIPT",
	KindOption: "OPTION",
	KindCmd:    "CMD",
	KindCall:   "CALL",
}

// String renders the opcode's symbolic name, or a hex literal if it falls
// outside the known tag set (used by error messages).
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return hexByte(byte(k))
}

// varSubKinds are the node kinds a VAR wire tag's low nibble may select.
var varSubKinds = map[Kind]bool{
	KindWord:  true,
	KindByte:  true,
	KindChar:  true,
	KindFlag:  true,
	KindStrID: true,
}

// IsValidVarSub reports whether k is a legal VAR sub-type.
func IsValidVarSub(k Kind) bool {
	return varSubKinds[k]
}

func hexByte(b byte) string {
	const hexdigits = "0123456789ABCDEF"
	return string([]byte{'0', 'x', hexdigits[b>>4], hexdigits[b&0xf]})
}

func hexWord(w uint16) string {
	const hexdigits = "0123456789ABCDEF"
	return string([]byte{
		'0', 'x',
		hexdigits[byte(w>>12)&0xf], hexdigits[byte(w>>8)&0xf],
		hexdigits[byte(w>>4)&0xf], hexdigits[byte(w)&0xf],
	})
}
