package radio

import (
	"fmt"
	"strconv"

	"github.com/g-e-o/mgs-compilation-tools/ast"
)

// sceneVoiceCode scans a dialog body for VOICE nodes carrying a vcHHHHHH
// name and returns the highest such code, or -1 if the dialog has none.
// The voice code embeds the scene the line was recorded for, which is
// the only signal left in the archive for reconstructing a dialog's
// original name.
func sceneVoiceCode(d *Dialog) int64 {
	best := int64(-1)
	d.Data.Walk(func(n *ast.RadioNode) bool {
		if n.Kind == ast.RadioVoice && n.Voice.IsName {
			name := n.Voice.Name
			if len(name) == 8 && name[:2] == "vc" {
				if code, err := strconv.ParseInt(name[2:], 16, 64); err == nil && code > best {
					best = code
				}
			}
		}
		return true
	})
	return best
}

// sceneName derives the RD_MM_NL name from a 24-bit voice code: the top
// byte is the major scene id, the next nibble a minor digit, and the
// nibble after that an optional letter (1 = A, 2 = B, ...).
func sceneName(code int64) string {
	shifted := uint32(code) << 8
	major := byte(shifted >> 24)
	minorDigit := (shifted >> 20) & 0xf
	letterValue := (shifted >> 16) & 0xf

	letter := ""
	if letterValue > 0 {
		letter = string(rune('A' + letterValue - 1))
	}
	return fmt.Sprintf("RD_%02X_%X%s", major, minorDigit, letter)
}

// SynthesizeNames assigns a name to every dialog, derived from its scene
// voice code, or RD_EXTRA_n for dialogs with no voice at all. Colliding
// names get a lowercase suffix: the first occurrence is renamed with an
// 'a', later ones take 'b', 'c', and so on; past 'z' the dialog's index
// is appended instead.
func SynthesizeNames(dialogs []Dialog) {
	extraCount := 0
	counts := make(map[string]int)
	first := make(map[string]*Dialog)

	for i := range dialogs {
		d := &dialogs[i]

		var name string
		if code := sceneVoiceCode(d); code == -1 {
			extraCount++
			name = fmt.Sprintf("RD_EXTRA_%d", extraCount)
		} else {
			name = sceneName(code)
		}

		if _, seen := counts[name]; seen {
			if prev := first[name]; prev != nil {
				prev.Name += "a"
				first[name] = nil
			}
			counts[name]++
			if counts[name] > 25 {
				name += "_" + strconv.Itoa(i)
			} else {
				name += string(rune('a' + counts[name]))
			}
		} else {
			counts[name] = 0
			first[name] = d
		}
		d.Name = name
	}
}
