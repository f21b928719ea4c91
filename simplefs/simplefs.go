// Package simplefs reads the flat read-only filesystem image that holds
// the turret's sound clips. The layout is a header, a directory table,
// then raw blobs:
//
//	header:  [signature u64 "SimpleFS"][num_files u16]
//	entry:   [name 16 bytes, zero padded][offset u32][length u32]
//
// All integers are big-endian, matching the images produced by the
// existing build tooling. The core never interprets clip bytes; files
// are opaque byte sequences.
package simplefs

import (
	"encoding/binary"
	"io"

	"turretcode-go/errcode"
)

// Storage is the backing byte store, typically external flash.
type Storage interface {
	Capacity() int
	ReadAt(off int, p []byte) error
}

// "SimpleFS"
const Signature uint64 = 0x53696d706c654653

const (
	MaxNameBytes = 16
	headerSize   = 8 + 2
	entrySize    = MaxNameBytes + 4 + 4
)

// DirEntry describes one stored file.
type DirEntry struct {
	Name   string
	Offset uint32
	Length uint32
}

// FS is a mounted image. The directory is read once at mount; file
// reads go to the storage on demand.
type FS struct {
	s       Storage
	entries []DirEntry
}

// Mount validates the header and loads the directory. BadImage on a
// wrong signature or a directory that points outside the storage.
func Mount(s Storage) (*FS, error) {
	if s.Capacity() < headerSize {
		return nil, &errcode.E{C: errcode.BadImage, Op: "simplefs.mount", Msg: "storage too small"}
	}

	hdr := make([]byte, headerSize)
	if err := s.ReadAt(0, hdr); err != nil {
		return nil, errcode.Wrap(errcode.HardwareFault, "simplefs.mount", err)
	}
	if binary.BigEndian.Uint64(hdr) != Signature {
		return nil, &errcode.E{C: errcode.BadImage, Op: "simplefs.mount", Msg: "bad signature"}
	}
	numFiles := int(binary.BigEndian.Uint16(hdr[8:]))

	dirLen := numFiles * entrySize
	if headerSize+dirLen > s.Capacity() {
		return nil, &errcode.E{C: errcode.BadImage, Op: "simplefs.mount", Msg: "truncated directory"}
	}
	dir := make([]byte, dirLen)
	if err := s.ReadAt(headerSize, dir); err != nil {
		return nil, errcode.Wrap(errcode.HardwareFault, "simplefs.mount", err)
	}

	entries := make([]DirEntry, numFiles)
	for i := range entries {
		rec := dir[i*entrySize:]
		name := rec[:MaxNameBytes]
		end := 0
		for end < MaxNameBytes && name[end] != 0 {
			end++
		}
		entries[i] = DirEntry{
			Name:   string(name[:end]),
			Offset: binary.BigEndian.Uint32(rec[MaxNameBytes:]),
			Length: binary.BigEndian.Uint32(rec[MaxNameBytes+4:]),
		}
		if int(entries[i].Offset)+int(entries[i].Length) > s.Capacity() {
			return nil, &errcode.E{C: errcode.BadImage, Op: "simplefs.mount", Msg: "entry past storage end"}
		}
	}

	return &FS{s: s, entries: entries}, nil
}

func (fs *FS) NumFiles() int { return len(fs.entries) }

// Entry returns the directory entry at index.
func (fs *FS) Entry(index int) (DirEntry, error) {
	if index < 0 || index >= len(fs.entries) {
		return DirEntry{}, errcode.NotFound
	}
	return fs.entries[index], nil
}

// Open returns a reader over the file at index.
func (fs *FS) Open(index int) (*File, error) {
	e, err := fs.Entry(index)
	if err != nil {
		return nil, err
	}
	return &File{s: fs.s, off: e.Offset, length: e.Length}, nil
}

// OpenName returns a reader over the first file with the given name.
func (fs *FS) OpenName(name string) (*File, error) {
	for i, e := range fs.entries {
		if e.Name == name {
			return fs.Open(i)
		}
	}
	return nil, errcode.NotFound
}

// File is a sequential reader over one stored file.
type File struct {
	s      Storage
	off    uint32
	length uint32
	pos    uint32
}

func (f *File) Size() int { return int(f.length) }

// Read implements io.Reader over the file's byte range.
func (f *File) Read(p []byte) (int, error) {
	if f.pos >= f.length {
		return 0, io.EOF
	}
	n := int(f.length - f.pos)
	if n > len(p) {
		n = len(p)
	}
	if err := f.s.ReadAt(int(f.off+f.pos), p[:n]); err != nil {
		return 0, errcode.Wrap(errcode.HardwareFault, "simplefs.read", err)
	}
	f.pos += uint32(n)
	return n, nil
}
