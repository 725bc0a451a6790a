package radio

import (
	"fmt"

	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
	"github.com/g-e-o/mgs-compilation-tools/gcx"
	"github.com/g-e-o/mgs-compilation-tools/resolver"
)

// Decoder decodes a RADIO.DAT archive into Dialog entries. Each dialog's
// embedded GCX expressions (MEMSAVE/PROMPT/VARSAVE/EVAL/IF conditions) are
// decoded with a gcx.Decoder sharing the same underlying buffer,
// mirroring the original's single GclDecomp instance reused across every
// dialog.
type Decoder struct {
	buf *buffer.Buffer
	gcl *gcx.Decoder

	// Resolver maps console voice codes (VOX block indexes) to names. PC
	// voice codes (high byte 0xFC) carry their name inline and never
	// consult it.
	Resolver resolver.Resolver

	pcVersion bool
}

// NewDecoder builds a Decoder over an entire RADIO.DAT image.
func NewDecoder(data []byte) *Decoder {
	buf := buffer.New(data)
	return &Decoder{buf: buf, gcl: gcx.NewDecoder(buf)}
}

// DecodeArchive decodes every dialog in the archive and synthesizes
// dialog names from their voice codes. padding controls whether the
// cursor is advanced to each dialog's 0x800 block boundary after
// decoding it, matching the original decompiler's optional behavior.
func (d *Decoder) DecodeArchive(padding bool) (*Archive, error) {
	fileSize := d.buf.Len()
	arc := &Archive{Padding: padding}

	for d.buf.Offset < fileSize {
		dialog, err := d.decodeDialog(fileSize)
		if err != nil {
			return nil, err
		}
		arc.Dialogs = append(arc.Dialogs, *dialog)

		if padding {
			rem := blockSize - (d.buf.Offset % blockSize)
			if rem != blockSize {
				d.buf.Offset += rem
			}
		}
	}

	arc.PCVersion = d.pcVersion
	SynthesizeNames(arc.Dialogs)
	return arc, nil
}

func (d *Decoder) decodeDialog(fileSize int) (*Dialog, error) {
	dialogOffset := d.buf.Offset

	freq, err := d.buf.ReadU16()
	if err != nil {
		return nil, err
	}
	faceSize, err := d.buf.ReadU8()
	if err != nil {
		return nil, err
	}
	d.buf.Offset++ // one byte of padding between FACE_SIZE and FACE_OFFSET
	faceOffset, err := d.buf.ReadU16()
	if err != nil {
		return nil, err
	}
	flags, err := d.buf.ReadU16()
	if err != nil {
		return nil, err
	}

	// The dialog body's own length prefix sits one byte into the node
	// (after its opcode byte); peek it to skip straight to the font block
	// without decoding the body twice.
	dataOffset := d.buf.Offset
	dataSize, err := d.buf.ReadU16At(dataOffset + 1)
	if err != nil {
		return nil, err
	}
	d.buf.Offset = dataOffset + int(dataSize) + 1

	fonts := scanFonts(d.buf, fileSize)
	fontsEnd := d.buf.Offset

	d.buf.Offset = dataOffset
	data, err := d.decodeNode()
	if err != nil {
		return nil, err
	}
	d.buf.Offset = fontsEnd

	return &Dialog{
		Offset:     dialogOffset,
		Frequency:  freq,
		FaceSize:   faceSize,
		FaceOffset: faceOffset,
		Flags:      flags,
		Data:       data,
		Fonts:      fonts,
	}, nil
}

// decodeBlock decodes radio nodes until the cursor reaches end.
func (d *Decoder) decodeBlock(end int) ([]ast.RadioNode, error) {
	var nodes []ast.RadioNode
	for d.buf.Offset < end {
		n, err := d.decodeNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (d *Decoder) decodeNode() (ast.RadioNode, error) {
	offset := d.buf.Offset
	code, err := d.buf.ReadU8()
	if err != nil {
		return ast.RadioNode{}, err
	}

	if ast.RadioKind(code) == ast.RadioEndline {
		return ast.RadioNode{Kind: ast.RadioEndline}, nil
	}

	sizeWord, err := d.buf.ReadU16()
	if err != nil {
		return ast.RadioNode{}, err
	}
	size := int(sizeWord) - 2
	end := d.buf.Offset + size

	switch ast.RadioKind(code) {
	case ast.RadioTalk:
		chara, _ := d.buf.ReadU16()
		anim, _ := d.buf.ReadU16()
		unk, _ := d.buf.ReadU16()
		text, err := d.buf.ReadString()
		if err != nil {
			return ast.RadioNode{}, err
		}
		return ast.RadioNode{Kind: ast.RadioTalk, CharaID: chara, AnimID: anim, Unk: unk, Text: text}, nil

	case ast.RadioVoice:
		code32, err := d.buf.ReadU32()
		if err != nil {
			return ast.RadioNode{}, err
		}
		voice, err := d.resolveVoice(code32)
		if err != nil {
			return ast.RadioNode{}, err
		}
		body, err := d.decodeBlock(end)
		if err != nil {
			return ast.RadioNode{}, err
		}
		return ast.RadioNode{Kind: ast.RadioVoice, Voice: voice, Body: body}, nil

	case ast.RadioAnim:
		chara, _ := d.buf.ReadU16()
		anim, _ := d.buf.ReadU16()
		unk, _ := d.buf.ReadU16()
		return ast.RadioNode{Kind: ast.RadioAnim, CharaID: chara, AnimID: anim, Unk: unk}, nil

	case ast.RadioAddContact:
		freq, err := d.buf.ReadU16()
		if err != nil {
			return ast.RadioNode{}, err
		}
		name, err := d.buf.ReadString()
		if err != nil {
			return ast.RadioNode{}, err
		}
		return ast.RadioNode{Kind: ast.RadioAddContact, Frequency: freq, Name: name}, nil

	case ast.RadioMemsave, ast.RadioPrompt, ast.RadioVarsave:
		nodes, err := d.decodeGclBlock(end - 1)
		if err != nil {
			return ast.RadioNode{}, err
		}
		if err := d.expectTerminator(); err != nil {
			return ast.RadioNode{}, err
		}
		kind := ast.RadioKind(code)
		return ast.RadioNode{Kind: kind, Gcl: nodes}, nil

	case ast.RadioSound:
		hex, err := d.buf.ReadHex(size)
		if err != nil {
			return ast.RadioNode{}, err
		}
		return ast.RadioNode{Kind: ast.RadioSound, SoundHex: hex}, nil

	case ast.RadioIf:
		return d.decodeIf(end)

	case ast.RadioSwitch, ast.RadioSwitchCase, ast.RadioSwitchDefault:
		// Never emitted by the original game data; the source compiler
		// leaves these opcodes unhandled ("not yet implemented"). Skip the
		// framed body so the cursor stays correct for later dialogs.
		d.buf.Offset = end
		return ast.RadioNode{Kind: ast.RadioKind(code)}, nil

	case ast.RadioRandswitch:
		return d.decodeRandswitch(end)

	case ast.RadioEval:
		n, err := d.gcl.DecodeNode()
		if err != nil {
			return ast.RadioNode{}, err
		}
		return ast.RadioNode{Kind: ast.RadioEval, Gcl: []ast.Node{n}}, nil

	case ast.RadioScript:
		script, err := d.decodeBlock(end - 1)
		if err != nil {
			return ast.RadioNode{}, err
		}
		if err := d.expectTerminator(); err != nil {
			return ast.RadioNode{}, err
		}
		return ast.RadioNode{Kind: ast.RadioScript, Script: script}, nil

	default:
		return ast.RadioNode{}, &ast.UnexpectedOpcodeError{Context: "RADIO node", Code: uint32(code), Offset: offset}
	}
}

// resolveVoice names a VOICE op's 32-bit code. A high byte of 0xFC marks
// the PC build, where the low 24 bits are the voice file's name; any
// other value is a VOX archive block index that must be resolved
// externally, since the number means nothing once the archive is
// repacked.
func (d *Decoder) resolveVoice(code uint32) (ast.TableValue, error) {
	if code>>24 == 0xfc {
		d.pcVersion = true
		return ast.TableValue{IsName: true, Name: fmt.Sprintf("vc%06x", code&0xffffff)}, nil
	}
	if d.Resolver != nil {
		if name, ok := d.Resolver.NameOfVox(code); ok {
			return ast.TableValue{IsName: true, Name: name}, nil
		}
		return ast.TableValue{}, &ast.UnresolvedReferenceError{Space: "vox", Key: fmt.Sprintf("%#x", code)}
	}
	return ast.TableValue{Literal: code}, nil
}

func (d *Decoder) decodeGclBlock(end int) ([]ast.Node, error) {
	var nodes []ast.Node
	for d.buf.Offset < end {
		n, err := d.gcl.DecodeNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (d *Decoder) expectTerminator() error {
	b, err := d.buf.ReadU8()
	if err != nil {
		return err
	}
	if b != 0 {
		return &ast.FramingViolationError{Where: "RADIO block terminator", Expected: 0, Actual: int(b)}
	}
	return nil
}

func (d *Decoder) decodeIf(end int) (ast.RadioNode, error) {
	cond, err := d.gcl.DecodeNode()
	if err != nil {
		return ast.RadioNode{}, err
	}
	thenBody, err := d.decodeNode()
	if err != nil {
		return ast.RadioNode{}, err
	}
	then := []ast.RadioNode{thenBody}

	for d.buf.Offset < end-1 {
		code, err := d.buf.ReadU8()
		if err != nil {
			return ast.RadioNode{}, err
		}
		switch ast.RadioKind(code) {
		case ast.RadioElseif:
			elseifCond, err := d.gcl.DecodeNode()
			if err != nil {
				return ast.RadioNode{}, err
			}
			body, err := d.decodeNode()
			if err != nil {
				return ast.RadioNode{}, err
			}
			then = append(then, ast.RadioNode{Kind: ast.RadioElseif, Gcl: []ast.Node{elseifCond}, Then: []ast.RadioNode{body}})
		case ast.RadioElse:
			body, err := d.decodeNode()
			if err != nil {
				return ast.RadioNode{}, err
			}
			then = append(then, ast.RadioNode{Kind: ast.RadioElse, Then: []ast.RadioNode{body}})
		default:
			d.buf.Offset--
			body, err := d.decodeNode()
			if err != nil {
				return ast.RadioNode{}, err
			}
			then = append(then, body)
		}
	}

	if err := d.expectTerminator(); err != nil {
		return ast.RadioNode{}, err
	}

	return ast.RadioNode{Kind: ast.RadioIf, Gcl: []ast.Node{cond}, Then: then}, nil
}

func (d *Decoder) decodeRandswitch(end int) (ast.RadioNode, error) {
	switchValue, err := d.buf.ReadU16()
	if err != nil {
		return ast.RadioNode{}, err
	}

	var cases []ast.RadioNode
	for d.buf.Offset < end-1 {
		code, err := d.buf.ReadU8()
		if err != nil {
			return ast.RadioNode{}, err
		}
		if ast.RadioKind(code) != ast.RadioRandswitchCase {
			return ast.RadioNode{}, &ast.UnexpectedOpcodeError{Context: "RANDSWITCH case", Code: uint32(code), Offset: d.buf.Offset - 1}
		}
		caseValue, err := d.buf.ReadU16()
		if err != nil {
			return ast.RadioNode{}, err
		}
		caseData, err := d.decodeNode()
		if err != nil {
			return ast.RadioNode{}, err
		}
		cases = append(cases, ast.RadioNode{Kind: ast.RadioRandswitchCase, CaseValue: caseValue, Then: []ast.RadioNode{caseData}})
	}

	if err := d.expectTerminator(); err != nil {
		return ast.RadioNode{}, err
	}

	return ast.RadioNode{Kind: ast.RadioRandswitch, SwitchValue: switchValue, Cases: cases}, nil
}
