package gcx

import (
	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
	"github.com/g-e-o/mgs-compilation-tools/resolver"
)

// Procedure is one top-level GCX procedure: its id (a GV_StrCode hash, or
// 0 for the file's main procedure) and its decoded body.
type Procedure struct {
	ID   uint16   `json:"proc_id"`
	Body ast.Node `json:"proc_data"`
}

// File is a decoded GCX procedure file: an ordered list of procedures
// followed by an optional block of 36-byte font glyph records. The main
// procedure (id 0) is always stored last in Procedures even though it is
// framed first on the wire.
type File struct {
	Procedures []Procedure `json:"procedures"`
	Fonts      []string    `json:"fonts,omitempty"` // each a 36-byte run, hex-encoded
	PCVersion  bool        `json:"pc_version,omitempty"`
}

type procHeader struct {
	id     uint16
	offset uint16
}

// Decode parses a full GCX procedure file without symbolic resolution;
// every TABLE leaf stays numeric. PC-version files are not 4-byte padded
// after the font block; this only affects Encode, so Decode does not
// need to know which version it is reading.
func Decode(data []byte) (*File, error) {
	return DecodeFile(data, nil)
}

// DecodeFile parses a full GCX procedure file, rewriting TABLE leaves to
// symbolic names through res when it is non-nil.
func DecodeFile(data []byte, res resolver.Resolver) (*File, error) {
	buf := buffer.New(data)

	var headers []procHeader
	for {
		id, err := buf.ReadU16()
		if err != nil {
			return nil, err
		}
		offset, err := buf.ReadU16()
		if err != nil {
			return nil, err
		}
		if id == 0 && offset == 0 {
			break
		}
		headers = append(headers, procHeader{id: id, offset: offset})
	}
	if len(headers) > 0 {
		headers = append(headers[1:], headers[0])
	}
	headerSize := buf.Offset

	f := &File{}
	for _, h := range headers {
		if h.id == 0 {
			buf.Offset = int(h.offset) + 8
		} else {
			buf.Offset = int(h.offset) + headerSize
		}
		dec := NewDecoder(buf)
		dec.Resolver = res
		body, err := dec.DecodeNode()
		if err != nil {
			return nil, err
		}
		f.Procedures = append(f.Procedures, Procedure{ID: h.id, Body: body})
	}

	fontsSizeField, err := buf.ReadU32()
	if err != nil {
		return nil, err
	}
	fontsSize := int(fontsSizeField) - 2
	fontsEnd := buf.Offset + fontsSize
	for buf.Offset < fontsEnd {
		font, err := buf.ReadHex(36)
		if err != nil {
			return nil, err
		}
		f.Fonts = append(f.Fonts, font)
	}

	return f, nil
}

// Encode reassembles a procedure file's bytes without symbolic
// resolution; trees containing named TABLE leaves need EncodeFile with a
// resolver-carrying Encoder instead.
func (f *File) Encode() ([]byte, error) {
	return NewEncoder().EncodeFile(f)
}

// EncodeFile reassembles a procedure file's bytes from f, reproducing
// the header/offset table, the 0-id main-procedure special case, and the
// 4-byte padding the console build (but not the PC build) applies after
// the font block.
func (e *Encoder) EncodeFile(f *File) ([]byte, error) {
	// mainEntry holds the main procedure's own (id=0, offset) header pair,
	// which is written ahead of the other procedures' header entries
	// rather than interleaved among them (this mirrors the original
	// compiler's separate `data`/`header` buffers exactly; the ordering
	// is load-bearing for Decode's offset arithmetic).
	mainEntry := buffer.NewWriter()
	headerW := buffer.NewWriter()
	proceduresW := buffer.NewWriter()
	fontsW := buffer.NewWriter()

	for _, font := range f.Fonts {
		if err := fontsW.WriteHex(font); err != nil {
			return nil, err
		}
	}

	for _, proc := range f.Procedures {
		body, err := e.Encode(proc.Body)
		if err != nil {
			return nil, err
		}

		if proc.ID == 0 {
			mainEntry.WriteU16(0)
			offset := len(proceduresW.Bytes()) + len(headerW.Bytes()) + 4
			mainEntry.WriteU16(uint16(offset))
			proceduresW.WriteU32(uint32(len(body)))
		} else {
			headerW.WriteU16(proc.ID)
			headerW.WriteU16(uint16(len(proceduresW.Bytes())))
		}
		proceduresW.WriteBytes(body)
	}

	out := buffer.NewWriter()
	out.WriteBytes(mainEntry.Bytes())
	out.WriteBytes(headerW.Bytes())
	out.WriteU32(0)
	out.WriteBytes(proceduresW.Bytes())
	out.WriteU32(uint32(len(fontsW.Bytes())))
	out.WriteBytes(fontsW.Bytes())

	if !f.PCVersion {
		for len(out.Bytes())%4 != 0 {
			out.WriteU8(0)
		}
	}

	return out.Bytes(), nil
}
