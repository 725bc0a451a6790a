// Package radio decodes and re-encodes the RADIO dialog archive: a
// sequence of 0x800-aligned Dialog blocks, each holding a small fixed
// header, a tree of RadioNode lines, and a trailing run of 36-byte font
// glyph records.
package radio

import "github.com/g-e-o/mgs-compilation-tools/ast"

// Dialog is one decoded RADIO archive entry.
type Dialog struct {
	Offset     int           `json:"offset"` // byte offset of this dialog within the archive
	Frequency  uint16        `json:"freq"`
	FaceSize   uint8         `json:"face_size"`
	FaceOffset uint16        `json:"face_offset"`
	Flags      uint16        `json:"flags"`
	Data       ast.RadioNode `json:"data"`
	Fonts      []string      `json:"fonts,omitempty"` // each a 36-byte run, hex-encoded
	Name       string        `json:"name"`
}

// Archive is a fully decoded RADIO.DAT: an ordered list of dialogs.
type Archive struct {
	Dialogs []Dialog `json:"dialogs"`
	// Padding controls whether the codec aligns each dialog to an 0x800
	// block boundary (the `padding` option; disabling it is used by
	// tooling that wants tightly packed dialog extraction).
	Padding bool `json:"padding"`
	// PCVersion records that at least one voice code carried the 0xFC
	// PC-build marker, meaning the archive references loose voice files
	// rather than VOX.DAT blocks.
	PCVersion bool `json:"pc_version,omitempty"`
}

const blockSize = 0x800
