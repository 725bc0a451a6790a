package radio

import (
	"strconv"

	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
	"github.com/g-e-o/mgs-compilation-tools/gcx"
	"github.com/g-e-o/mgs-compilation-tools/resolver"
)

// bilingualThreshold is the dialog count past which an archive is
// assumed to interleave two languages, pairing adjacent dialogs under a
// shared call descriptor. The single-language archives in the corpus top
// out well below it; the bilingual release roughly doubles the count.
const bilingualThreshold = 500

// Encoder reassembles Dialog entries into RADIO.DAT bytes and produces
// the per-dialog call descriptor table GCX TABLE leaves resolve against.
type Encoder struct {
	// Resolver maps voice names back to VOX block indexes on console
	// builds (voice names are not looked up in it when PCVersion is set),
	// and resolves named TABLE leaves in embedded GCX on every build.
	Resolver resolver.Resolver
	// PCVersion selects the PC voice-code encoding (0xFC marker plus the
	// 24-bit name) instead of VOX block indexes.
	PCVersion bool
	// Padding aligns each dialog to an 0x800 block boundary.
	Padding bool
}

// NewEncoder returns an Encoder with the corpus-default 0x800 padding.
func NewEncoder() *Encoder {
	return &Encoder{Padding: true}
}

// EncodeArchive serializes dialogs in order and returns the bytes along
// with the call descriptor for each dialog name. With more than
// bilingualThreshold dialogs, adjacent pairs share one descriptor
// packing both languages' sizes; otherwise each dialog gets its own
// {size, 0, offset} descriptor.
func (e *Encoder) EncodeArchive(dialogs []Dialog) ([]byte, map[string]uint32, error) {
	data := buffer.NewWriter()
	calls := make(map[string]uint32, len(dialogs))

	hasTranslation := len(dialogs) > bilingualThreshold
	lastSize := 0
	lastName := ""

	for i := range dialogs {
		d := &dialogs[i]
		dialogOffset := data.Len()

		entry := buffer.NewWriter()
		entry.WriteU16(d.Frequency)
		entry.WriteU8(d.FaceSize)
		entry.WriteU8(0)
		entry.WriteU16(d.FaceOffset)
		entry.WriteU16(d.Flags)

		body, err := e.encodeNode(d.Data)
		if err != nil {
			return nil, nil, err
		}
		entry.WriteBytes(body)

		for _, font := range d.Fonts {
			if err := entry.WriteHex(font); err != nil {
				return nil, nil, err
			}
		}
		if e.Padding {
			for (data.Len()+entry.Len())%blockSize != 0 {
				entry.WriteU8(0)
			}
		}
		data.WriteBytes(entry.Bytes())

		// The call descriptor packs block-granular sizes and offsets,
		// exactly the {size1, size2, offset} integer the game engine
		// splits with shifts.
		offset := dialogOffset / blockSize
		size := entry.Len() / blockSize
		if hasTranslation {
			if (i+1)%2 == 0 {
				call := uint32(lastSize)<<24 | uint32(size)<<16 | uint32(offset-lastSize)&0xffff
				calls[lastName] = call
				calls[d.Name] = call
			}
		} else {
			calls[d.Name] = uint32(size)<<24 | uint32(offset)&0xffff
		}
		lastSize = size
		lastName = d.Name
	}

	return data.Bytes(), calls, nil
}

// encodeNode serializes one radio op. Every op except ELSE, ELSEIF and
// ENDLINE is framed as {code byte, u16 length, body}; ELSE and ELSEIF
// are emitted bare inside their IF frame, and ENDLINE is the single
// 0xFF byte.
func (e *Encoder) encodeNode(n ast.RadioNode) ([]byte, error) {
	data := buffer.NewWriter()

	switch n.Kind {
	case ast.RadioEndline:
		return []byte{byte(ast.RadioEndline)}, nil

	case ast.RadioElse:
		out := buffer.NewWriter()
		out.WriteU8(byte(ast.RadioElse))
		if err := e.encodeNodes(out, n.Then); err != nil {
			return nil, err
		}
		return out.Bytes(), nil

	case ast.RadioElseif:
		out := buffer.NewWriter()
		out.WriteU8(byte(ast.RadioElseif))
		if err := e.encodeGcl(out, n.Gcl); err != nil {
			return nil, err
		}
		if err := e.encodeNodes(out, n.Then); err != nil {
			return nil, err
		}
		return out.Bytes(), nil

	case ast.RadioTalk:
		data.WriteU16(n.CharaID)
		data.WriteU16(n.AnimID)
		data.WriteU16(n.Unk)
		if err := data.WriteString(n.Text); err != nil {
			return nil, err
		}

	case ast.RadioVoice:
		code, err := e.resolveVoice(n.Voice)
		if err != nil {
			return nil, err
		}
		data.WriteU32(code)
		if err := e.encodeNodes(data, n.Body); err != nil {
			return nil, err
		}

	case ast.RadioAnim:
		data.WriteU16(n.CharaID)
		data.WriteU16(n.AnimID)
		data.WriteU16(n.Unk)

	case ast.RadioAddContact:
		data.WriteU16(n.Frequency)
		if err := data.WriteString(n.Name); err != nil {
			return nil, err
		}

	case ast.RadioMemsave, ast.RadioPrompt, ast.RadioVarsave:
		if err := e.encodeGcl(data, n.Gcl); err != nil {
			return nil, err
		}
		data.WriteU8(0)

	case ast.RadioSound:
		if err := data.WriteHex(n.SoundHex); err != nil {
			return nil, err
		}

	case ast.RadioIf:
		if err := e.encodeGcl(data, n.Gcl); err != nil {
			return nil, err
		}
		if err := e.encodeNodes(data, n.Then); err != nil {
			return nil, err
		}
		data.WriteU8(0)

	case ast.RadioSwitch, ast.RadioSwitchCase, ast.RadioSwitchDefault:
		return nil, ast.ErrUnimplementedSwitch

	case ast.RadioRandswitch:
		data.WriteU16(n.SwitchValue)
		for _, c := range n.Cases {
			data.WriteU8(byte(ast.RadioRandswitchCase))
			data.WriteU16(c.CaseValue)
			if err := e.encodeNodes(data, c.Then); err != nil {
				return nil, err
			}
		}
		data.WriteU8(0)

	case ast.RadioEval:
		if err := e.encodeGcl(data, n.Gcl); err != nil {
			return nil, err
		}

	case ast.RadioScript:
		if err := e.encodeNodes(data, n.Script); err != nil {
			return nil, err
		}
		data.WriteU8(0)

	default:
		return nil, &ast.UnexpectedOpcodeError{Context: "RADIO node encode", Code: uint32(n.Kind)}
	}

	out := buffer.NewWriter()
	out.WriteU8(byte(n.Kind))
	out.WriteU16(uint16(data.Len() + 2))
	out.WriteBytes(data.Bytes())
	return out.Bytes(), nil
}

func (e *Encoder) encodeNodes(w *buffer.Buffer, nodes []ast.RadioNode) error {
	for _, n := range nodes {
		encoded, err := e.encodeNode(n)
		if err != nil {
			return err
		}
		w.WriteBytes(encoded)
	}
	return nil
}

func (e *Encoder) encodeGcl(w *buffer.Buffer, nodes []ast.Node) error {
	enc := gcx.NewEncoder()
	enc.Resolver = e.Resolver
	for _, n := range nodes {
		encoded, err := enc.Encode(n)
		if err != nil {
			return err
		}
		w.WriteBytes(encoded)
	}
	return nil
}

// resolveVoice inverts Decoder.resolveVoice: a vcHHHHHH name on the PC
// build becomes 0xFC marker plus the 24-bit code, anything else is a VOX
// block index looked up by name.
func (e *Encoder) resolveVoice(v ast.TableValue) (uint32, error) {
	if !v.IsName {
		return v.Literal, nil
	}
	if e.PCVersion {
		if len(v.Name) == 8 && v.Name[:2] == "vc" {
			code, err := strconv.ParseUint(v.Name[2:], 16, 32)
			if err == nil {
				return 0xfc<<24 | uint32(code)&0xffffff, nil
			}
		}
		return 0, &ast.UnresolvedReferenceError{Space: "vox", Key: v.Name}
	}
	if e.Resolver != nil {
		if block, ok := e.Resolver.BlockIndexOfVox(v.Name); ok {
			return block, nil
		}
	}
	return 0, &ast.UnresolvedReferenceError{Space: "vox", Key: v.Name}
}
