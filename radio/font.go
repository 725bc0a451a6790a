package radio

import "github.com/g-e-o/mgs-compilation-tools/buffer"

const fontRunSize = 36

// scanFonts scans forward from buf's current cursor for a run of 36-byte
// font glyph records, stopping at the first run that looks like it
// belongs to the next dialog's header rather than a glyph.
//
// A run is accepted as a glyph if none of its last three bytes (indices
// 33-35) is anything other than 0x00 or 0x14 — empirically, every glyph
// record observed in retail data ends that way, and the one dialog header
// that happens to start with 36 zero bytes is caught by the all-zero
// check below instead. A run that sums to zero marks the end of the font
// block, not a glyph, and is not appended.
func scanFonts(buf *buffer.Buffer, fileSize int) []string {
	var fonts []string

	for {
		start := buf.Offset
		sum := 0
		aborted := false

		for i := 0; i < fontRunSize; i++ {
			if i >= fontRunSize-3 {
				b, err := buf.ReadU8At(buf.Offset)
				if err != nil || (b != 0 && b != 0x14) {
					buf.Offset = start
					aborted = true
					break
				}
			}
			if buf.Offset+1 == fileSize {
				buf.Offset = start
				aborted = true
				break
			}
			b, err := buf.ReadU8()
			if err != nil {
				buf.Offset = start
				aborted = true
				break
			}
			sum += int(b)
		}

		if aborted {
			break
		}
		if sum == 0 {
			// A genuine all-zero run marks the end of the font block, but
			// unlike the abort paths above, the cursor is left advanced
			// past it rather than rewound — it's consumed, not rejected.
			break
		}

		buf.Offset = start
		font, _ := buf.ReadHex(fontRunSize)
		fonts = append(fonts, font)
	}

	return fonts
}
