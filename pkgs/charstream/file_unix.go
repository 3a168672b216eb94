//go:build unix

package charstream

import (
	"os"

	"golang.org/x/sys/unix"
)

// FileStream is a Stream reading a text file opened for read. On unix it
// memory-maps the file instead of buffering it, avoiding a full read()
// copy for large scripts; Close must be called to unmap.
type FileStream struct {
	data    []byte
	decoded []rune
	pos     int
	mmap    bool
	f       *os.File
}

// OpenFile opens path for reading and returns a FileStream over its
// contents. The caller must call Close when done.
func OpenFile(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if info.Size() == 0 {
		return &FileStream{f: f}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		// Fall back to buffered read if mmap isn't available (e.g. the
		// underlying filesystem doesn't support it).
		buf, rerr := os.ReadFile(path)
		if rerr != nil {
			f.Close()
			return nil, rerr
		}
		return &FileStream{data: buf, f: f}, nil
	}

	return &FileStream{data: data, mmap: true, f: f}, nil
}

// Close releases the mapping (or file handle) backing the stream.
func (s *FileStream) Close() error {
	if s.mmap {
		_ = unix.Munmap(s.data)
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// NextChar implements Stream. On first access the whole file is decoded
// from UTF-8 into a rune slice, trading a one-time decode pass for simple
// random-free forward scanning (the scanner never rewinds past a
// pushed-back character).
func (s *FileStream) NextChar() rune {
	s.ensureDecoded()
	if s.pos >= len(s.decoded) {
		return EndOfSource
	}
	ch := s.decoded[s.pos]
	s.pos++
	return ch
}

// IsEndOfStream implements Stream.
func (s *FileStream) IsEndOfStream() bool {
	s.ensureDecoded()
	return s.pos >= len(s.decoded)
}

func (s *FileStream) ensureDecoded() {
	if s.decoded != nil || len(s.data) == 0 {
		return
	}
	s.decoded = []rune(string(s.data))
}
