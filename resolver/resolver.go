// Package resolver translates the symbolic names used in decompiled
// scripts (radio dialog names, voice names, demo names) to and from the
// numeric offsets and block indexes the bytecode actually stores. The
// codecs hold a Resolver instead of the archive tables themselves, so a
// codec instance stays stateless across files and the archives remain
// external collaborators.
package resolver

// Resolver is the cross-reference surface the GCX and RADIO codecs need.
// Every lookup reports a miss with ok=false; the codecs decide whether a
// miss is fatal (an unresolvable SOUND or DEMO reference) or survivable
// (a RADIO table value with no matching dialog stays numeric).
type Resolver interface {
	NameOfVox(blockIndex uint32) (string, bool)
	BlockIndexOfVox(name string) (uint32, bool)
	NameOfDemo(blockIndex uint32) (string, bool)
	BlockIndexOfDemo(name string) (uint32, bool)
	CallDescriptorOfRadio(name string) (uint32, bool)
	RadioNameOfOffset(byteOffset int) (string, bool)
}

// Table is the default in-memory Resolver, built up from unpacked DEMO
// and VOX archives and a decoded (or freshly encoded) RADIO archive.
type Table struct {
	voxByBlock  map[uint32]string
	voxByName   map[string]uint32
	demoByBlock map[uint32]string
	demoByName  map[string]uint32
	radioCalls  map[string]uint32
	radioNames  map[int]string
}

// NewTable returns an empty Table; populate it with the Add methods.
func NewTable() *Table {
	return &Table{
		voxByBlock:  make(map[uint32]string),
		voxByName:   make(map[string]uint32),
		demoByBlock: make(map[uint32]string),
		demoByName:  make(map[string]uint32),
		radioCalls:  make(map[string]uint32),
		radioNames:  make(map[int]string),
	}
}

// AddVox registers a voice sample's name at a VOX archive block index.
func (t *Table) AddVox(name string, blockIndex uint32) {
	t.voxByBlock[blockIndex] = name
	t.voxByName[name] = blockIndex
}

// AddDemo registers a demo file's name at a DEMO archive block index.
func (t *Table) AddDemo(name string, blockIndex uint32) {
	t.demoByBlock[blockIndex] = name
	t.demoByName[name] = blockIndex
}

// AddRadioDialog registers a dialog's synthesized name, its byte offset
// within the RADIO archive, and its 32-bit call descriptor.
func (t *Table) AddRadioDialog(name string, byteOffset int, callDescriptor uint32) {
	t.radioNames[byteOffset] = name
	t.radioCalls[name] = callDescriptor
}

// AddRadioCall registers a dialog's call descriptor alone, for tables
// built from a freshly encoded archive where byte offsets are folded
// into the descriptors already.
func (t *Table) AddRadioCall(name string, callDescriptor uint32) {
	t.radioCalls[name] = callDescriptor
}

func (t *Table) NameOfVox(blockIndex uint32) (string, bool) {
	name, ok := t.voxByBlock[blockIndex]
	return name, ok
}

func (t *Table) BlockIndexOfVox(name string) (uint32, bool) {
	block, ok := t.voxByName[name]
	return block, ok
}

func (t *Table) NameOfDemo(blockIndex uint32) (string, bool) {
	name, ok := t.demoByBlock[blockIndex]
	return name, ok
}

func (t *Table) BlockIndexOfDemo(name string) (uint32, bool) {
	block, ok := t.demoByName[name]
	return block, ok
}

func (t *Table) CallDescriptorOfRadio(name string) (uint32, bool) {
	call, ok := t.radioCalls[name]
	return call, ok
}

func (t *Table) RadioNameOfOffset(byteOffset int) (string, bool) {
	name, ok := t.radioNames[byteOffset]
	return name, ok
}
