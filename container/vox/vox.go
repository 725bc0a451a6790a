// Package vox unpacks and repacks VOX.DAT, the voice-sample archive.
// Unlike DEMO.DAT there is no magic number to split on and no name table
// anywhere in the image: samples are simply laid out at 0x800 block
// boundaries and referenced by block index from RADIO voice codes and
// GCX SOUND tables. Unpack therefore yields one file per block, named by
// its block index in the same vcHHHHHH convention the PC build uses, so
// that name resolution stays invertible across a repack.
package vox

import (
	"fmt"

	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
)

const blockSize = 0x800

// File is one block-aligned span of the archive.
type File struct {
	Name   string
	Offset int
	Data   []byte
}

// BlockIndex is the file's offset in 0x800 units, the value voice codes
// and SOUND table references store.
func (f *File) BlockIndex() uint32 {
	return uint32(f.Offset / blockSize)
}

// Unpack splits a VOX.DAT image at every block boundary.
func Unpack(data []byte) ([]File, error) {
	var files []File
	for offset := 0; offset < len(data); offset += blockSize {
		end := offset + blockSize
		if end > len(data) {
			end = len(data)
		}
		files = append(files, File{
			Name:   fmt.Sprintf("vc%06x", offset/blockSize),
			Offset: offset,
			Data:   data[offset:end],
		})
	}
	return files, nil
}

// Pack reassembles an archive from files, zero-filling each entry to the
// next block boundary. Like demo.Pack it insists the recorded offsets
// stay contiguous, since every voice reference in the scripts is a block
// index into this layout.
func Pack(files []File) ([]byte, error) {
	out := buffer.NewWriter()
	for i := range files {
		f := &files[i]
		if f.Offset != out.Len() {
			return nil, &ast.FramingViolationError{Where: "VOX pack " + f.Name, Expected: f.Offset, Actual: out.Len()}
		}
		out.WriteBytes(f.Data)
		for out.Len()%blockSize != 0 {
			out.WriteU8(0)
		}
	}
	return out.Bytes(), nil
}
