package vox

import (
	"bytes"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestUnpackNamesByBlockIndex(t *testing.T) {
	data := make([]byte, 3*0x800)
	files, err := Unpack(data)
	assert(t, err == nil, "Unpack: %v", err)
	assert(t, len(files) == 3, "got %d files, want 3", len(files))
	assert(t, files[0].Name == "vc000000", "got %q", files[0].Name)
	assert(t, files[2].Name == "vc000002", "got %q", files[2].Name)
	assert(t, files[2].BlockIndex() == 2, "block index: %d", files[2].BlockIndex())
}

func TestPackRoundTrip(t *testing.T) {
	data := make([]byte, 2*0x800)
	data[5] = 0x55
	data[0x800] = 0x66

	files, err := Unpack(data)
	assert(t, err == nil, "Unpack: %v", err)
	packed, err := Pack(files)
	assert(t, err == nil, "Pack: %v", err)
	assert(t, bytes.Equal(packed, data), "round trip differs")
}

func TestPackPadsShortEntries(t *testing.T) {
	files := []File{
		{Name: "vc000000", Offset: 0, Data: []byte{1, 2, 3}},
		{Name: "vc000001", Offset: 0x800, Data: []byte{4}},
	}
	packed, err := Pack(files)
	assert(t, err == nil, "Pack: %v", err)
	assert(t, len(packed) == 2*0x800, "got %d bytes", len(packed))
	assert(t, packed[0x800] == 4, "second entry misplaced")
}

func TestPackRejectsBadOffset(t *testing.T) {
	files := []File{
		{Name: "vc000000", Offset: 0x800, Data: []byte{1}},
	}
	_, err := Pack(files)
	assert(t, err != nil, "expected offset mismatch error")
}
