// Package demo unpacks and repacks DEMO.DAT, the demo-cutscene archive.
// Cutscenes have no embedded directory; they are found by scanning for
// the PSX overlay magic at block boundaries, and named by hashing each
// span against the file names the PC release shipped loose.
package demo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/g-e-o/mgs-compilation-tools/ast"
	"github.com/g-e-o/mgs-compilation-tools/buffer"
)

const blockSize = 0x800

// overlayMagic begins every demo file in the archive.
const overlayMagic = 0x10080000

// File is one span of the archive: a cutscene's name, its byte offset,
// and its raw data.
type File struct {
	Name   string
	Offset int
	Data   []byte
}

// BlockIndex is the file's offset in 0x800 units, the value DEMO table
// references store.
func (f *File) BlockIndex() uint32 {
	return uint32(f.Offset / blockSize)
}

// Unpack splits a DEMO.DAT image into its cutscene files. A span ends at
// the next block boundary whose first word is the overlay magic, or at
// the end of the archive. Spans whose hash matches a known PC-release
// file take that name; anything else gets a numbered placeholder.
func Unpack(data []byte) ([]File, error) {
	buf := buffer.New(data)

	var files []File
	offset := blockSize
	fileOffset := 0
	unknownIndex := 0
	for offset <= len(data) {
		boundary := offset == len(data)
		if !boundary {
			magic, err := buf.ReadU32At(offset)
			if err != nil {
				return nil, err
			}
			boundary = magic == overlayMagic
		}
		if boundary {
			span := data[fileOffset:offset]
			hash := sha256.Sum256(span)
			name, ok := pcDemoFiles[hex.EncodeToString(hash[:])]
			if ok {
				name += ".dmo"
			} else {
				name = fmt.Sprintf("sUnknown%02d.dmo", unknownIndex)
				unknownIndex++
			}
			files = append(files, File{Name: name, Offset: fileOffset, Data: span})
			fileOffset = offset
		}
		offset += blockSize - (offset % blockSize)
	}

	return files, nil
}

// Pack reassembles an archive from files, which must be ordered and
// contiguous: each file's recorded offset has to equal the bytes already
// written, or the surrounding GCX table references would all shift.
func Pack(files []File) ([]byte, error) {
	out := buffer.NewWriter()
	for i := range files {
		f := &files[i]
		if f.Offset != out.Len() {
			return nil, &ast.FramingViolationError{Where: "DEMO pack " + f.Name, Expected: f.Offset, Actual: out.Len()}
		}
		out.WriteBytes(f.Data)
	}
	return out.Bytes(), nil
}
