package radio

import (
	"bytes"
	"encoding/json"
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

// buildDialog assembles one on-disk dialog image: header, a RD_SCRIPT
// body holding a single TALK line and an ENDLINE, one font glyph, and
// zero padding to the block boundary.
func buildDialog() []byte {
	w := buffer.NewWriter()
	w.WriteU16(0x8d34) // freq
	w.WriteU8(0)       // face size
	w.WriteU8(0)
	w.WriteU16(0) // face offset
	w.WriteU16(0) // flags

	talk := buffer.NewWriter()
	talk.WriteU16(1)
	talk.WriteU16(2)
	talk.WriteU16(0)
	talk.WriteBytes([]byte{'H', 'I', 0})

	script := buffer.NewWriter()
	script.WriteU8(byte(ast.RadioTalk))
	script.WriteU16(uint16(talk.Len() + 2))
	script.WriteBytes(talk.Bytes())
	script.WriteU8(byte(ast.RadioEndline))
	script.WriteU8(0)

	w.WriteU8(byte(ast.RadioScript))
	w.WriteU16(uint16(script.Len() + 2))
	w.WriteBytes(script.Bytes())

	font := make([]byte, fontRunSize)
	font[0] = 0x7f
	w.WriteBytes(font)

	for w.Len()%blockSize != 0 {
		w.WriteU8(0)
	}
	return w.Bytes()
}

func TestArchiveRoundTrip(t *testing.T) {
	original := buildDialog()

	dec := NewDecoder(original)
	arc, err := dec.DecodeArchive(true)
	assert(t, err == nil, "DecodeArchive: %v", err)
	assert(t, len(arc.Dialogs) == 1, "got %d dialogs, want 1", len(arc.Dialogs))

	d := arc.Dialogs[0]
	assert(t, d.Frequency == 0x8d34, "freq mismatch: %#x", d.Frequency)
	assert(t, len(d.Fonts) == 1, "got %d fonts, want 1", len(d.Fonts))
	assert(t, d.Data.Kind == ast.RadioScript, "body kind mismatch: %v", d.Data.Kind)
	assert(t, len(d.Data.Script) == 2, "got %d script nodes, want 2", len(d.Data.Script))
	talk := d.Data.Script[0]
	assert(t, talk.Kind == ast.RadioTalk && talk.Text == "HI", "talk mismatch: %+v", talk)

	enc := NewEncoder()
	encoded, _, err := enc.EncodeArchive(arc.Dialogs)
	assert(t, err == nil, "EncodeArchive: %v", err)
	assert(t, bytes.Equal(encoded, original), "re-encoded archive differs: %d vs %d bytes", len(encoded), len(original))
}

func TestFontScanStopsAtNextDialogHeader(t *testing.T) {
	// The last glyph ends 00 14 00; the next dialog's header follows
	// immediately (no padding), and its first bytes are non-zero. The
	// scan has to stop exactly at the boundary.
	w := buffer.NewWriter()
	font := make([]byte, fontRunSize)
	font[0] = 0x7f
	font[fontRunSize-2] = 0x14
	w.WriteBytes(font)

	next := make([]byte, 64)
	for i := range next {
		next[i] = byte('A' + i%26)
	}
	w.WriteBytes(next)

	buf := buffer.New(w.Bytes())
	fonts := scanFonts(buf, buf.Len())
	assert(t, len(fonts) == 1, "got %d fonts, want 1", len(fonts))
	assert(t, buf.Offset == fontRunSize, "scan stopped at %d, want %d", buf.Offset, fontRunSize)
}

func TestVoiceCodePCRoundTrip(t *testing.T) {
	w := buffer.NewWriter()
	w.WriteU8(byte(ast.RadioVoice))
	w.WriteU16(4 + 1 + 2) // u32 code + endline + frame overhead
	w.WriteU32(0xfc123456)
	w.WriteU8(byte(ast.RadioEndline))

	dec := NewDecoder(w.Bytes())
	n, err := dec.decodeNode()
	assert(t, err == nil, "decodeNode: %v", err)
	assert(t, n.Voice.IsName && n.Voice.Name == "vc123456", "voice mismatch: %+v", n.Voice)

	enc := NewEncoder()
	enc.PCVersion = true
	encoded, err := enc.encodeNode(n)
	assert(t, err == nil, "encodeNode: %v", err)
	assert(t, bytes.Equal(encoded, w.Bytes()), "got % x, want % x", encoded, w.Bytes())
}

func TestVoiceCodeConsoleWithoutResolverStaysNumeric(t *testing.T) {
	w := buffer.NewWriter()
	w.WriteU8(byte(ast.RadioVoice))
	w.WriteU16(4 + 2)
	w.WriteU32(0x00000042)

	dec := NewDecoder(w.Bytes())
	n, err := dec.decodeNode()
	assert(t, err == nil, "decodeNode: %v", err)
	// No resolver attached: the block index stays numeric.
	assert(t, !n.Voice.IsName && n.Voice.Literal == 0x42, "voice mismatch: %+v", n.Voice)
}

func minimalDialog(name string) Dialog {
	return Dialog{
		Name: name,
		Data: ast.RadioNode{Kind: ast.RadioScript, Script: []ast.RadioNode{{Kind: ast.RadioEndline}}},
	}
}

func TestSingleLanguageCallDescriptor(t *testing.T) {
	dialogs := []Dialog{minimalDialog("RD_01_1"), minimalDialog("RD_01_2")}

	enc := NewEncoder()
	_, calls, err := enc.EncodeArchive(dialogs)
	assert(t, err == nil, "EncodeArchive: %v", err)

	// Each padded dialog occupies exactly one block: {size=1, 0, offset}.
	assert(t, calls["RD_01_1"] == 0x01000000, "got %#x", calls["RD_01_1"])
	assert(t, calls["RD_01_2"] == 0x01000001, "got %#x", calls["RD_01_2"])
}

func TestBilingualPairsShareCallDescriptor(t *testing.T) {
	var dialogs []Dialog
	for i := 0; i <= bilingualThreshold; i++ {
		dialogs = append(dialogs, minimalDialog(""))
	}
	SynthesizeNames(dialogs)

	enc := NewEncoder()
	_, calls, err := enc.EncodeArchive(dialogs)
	assert(t, err == nil, "EncodeArchive: %v", err)

	first, second := dialogs[0].Name, dialogs[1].Name
	assert(t, calls[first] == calls[second], "pair descriptors differ: %#x vs %#x", calls[first], calls[second])
	// {lang1_size=1, lang2_size=1, lang1_offset=0}
	assert(t, calls[first] == 0x01010000, "got %#x", calls[first])
}

func TestSwitchEncodeRefused(t *testing.T) {
	enc := NewEncoder()
	_, err := enc.encodeNode(ast.RadioNode{Kind: ast.RadioSwitch})
	assert(t, err == ast.ErrUnimplementedSwitch, "got %v", err)
}

func TestSynthesizeNamesFromVoiceCode(t *testing.T) {
	d := minimalDialog("")
	d.Data.Script = append([]ast.RadioNode{{
		Kind:  ast.RadioVoice,
		Voice: ast.TableValue{IsName: true, Name: "vc021000"},
	}}, d.Data.Script...)
	dialogs := []Dialog{d, minimalDialog("")}

	SynthesizeNames(dialogs)
	assert(t, dialogs[0].Name == "RD_02_1", "got %q", dialogs[0].Name)
	assert(t, dialogs[1].Name == "RD_EXTRA_1", "got %q", dialogs[1].Name)
}

func TestSynthesizeNamesCollisionSuffixes(t *testing.T) {
	voiced := func() Dialog {
		d := minimalDialog("")
		d.Data.Script = append([]ast.RadioNode{{
			Kind:  ast.RadioVoice,
			Voice: ast.TableValue{IsName: true, Name: "vc030200"},
		}}, d.Data.Script...)
		return d
	}
	dialogs := []Dialog{voiced(), voiced(), voiced()}

	SynthesizeNames(dialogs)
	assert(t, dialogs[0].Name == "RD_03_0Ba", "got %q", dialogs[0].Name)
	assert(t, dialogs[1].Name == "RD_03_0Bb", "got %q", dialogs[1].Name)
	assert(t, dialogs[2].Name == "RD_03_0Bc", "got %q", dialogs[2].Name)
}

func TestDialogJSONRoundTrip(t *testing.T) {
	d := Dialog{
		Name:      "RD_02_1",
		Frequency: 14012,
		Data: ast.RadioNode{Kind: ast.RadioScript, Script: []ast.RadioNode{
			{Kind: ast.RadioTalk, CharaID: 1, AnimID: 2, Text: "HI"},
			{Kind: ast.RadioIf,
				Gcl:  []ast.Node{{Kind: ast.KindExpr, Expr: []ast.Node{{Kind: ast.KindWord, Word: 1}}}},
				Then: []ast.RadioNode{{Kind: ast.RadioEndline}}},
			{Kind: ast.RadioEndline},
		}},
		Fonts: []string{"00ff"},
	}

	doc, err := json.Marshal(d)
	assert(t, err == nil, "Marshal: %v", err)

	var got Dialog
	assert(t, json.Unmarshal(doc, &got) == nil, "Unmarshal failed")
	assert(t, got.Name == d.Name && got.Frequency == d.Frequency, "header mismatch: %+v", got)
	assert(t, len(got.Data.Script) == 3, "got %d script nodes", len(got.Data.Script))
	assert(t, got.Data.Script[1].Kind == ast.RadioIf, "kind mismatch")
	assert(t, len(got.Data.Script[1].Gcl) == 1 && got.Data.Script[1].Gcl[0].Kind == ast.KindExpr,
		"embedded gcl lost: %+v", got.Data.Script[1].Gcl)
}
