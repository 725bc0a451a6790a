package resolver

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestVoxLookupBothDirections(t *testing.T) {
	table := NewTable()
	table.AddVox("vc021000", 0x42)

	name, ok := table.NameOfVox(0x42)
	assert(t, ok && name == "vc021000", "got %q, %v", name, ok)

	block, ok := table.BlockIndexOfVox("vc021000")
	assert(t, ok && block == 0x42, "got %#x, %v", block, ok)

	_, ok = table.NameOfVox(0x43)
	assert(t, !ok, "expected miss for unknown block")
	_, ok = table.BlockIndexOfVox("vc999999")
	assert(t, !ok, "expected miss for unknown name")
}

func TestDemoLookupBothDirections(t *testing.T) {
	table := NewTable()
	table.AddDemo("s0101a0.dmo", 7)

	name, ok := table.NameOfDemo(7)
	assert(t, ok && name == "s0101a0.dmo", "got %q, %v", name, ok)

	block, ok := table.BlockIndexOfDemo("s0101a0.dmo")
	assert(t, ok && block == 7, "got %d, %v", block, ok)
}

func TestRadioDialogLookups(t *testing.T) {
	table := NewTable()
	table.AddRadioDialog("RD_02_1", 0x80000, 0x00010100)

	call, ok := table.CallDescriptorOfRadio("RD_02_1")
	assert(t, ok && call == 0x00010100, "got %#x, %v", call, ok)

	name, ok := table.RadioNameOfOffset(0x80000)
	assert(t, ok && name == "RD_02_1", "got %q, %v", name, ok)

	_, ok = table.RadioNameOfOffset(0x800)
	assert(t, !ok, "expected miss for unknown offset")
}

func TestAddRadioCallDescriptorOnly(t *testing.T) {
	table := NewTable()
	table.AddRadioCall("RD_01_1", 0x01000000)

	call, ok := table.CallDescriptorOfRadio("RD_01_1")
	assert(t, ok && call == 0x01000000, "got %#x, %v", call, ok)
}
