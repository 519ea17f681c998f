package base

import (
	"encoding/binary"
	"io"
)

// Serializable types know how to read or write themselves through an
// Archive. Unlike a general-purpose reflection-based archive, this
// one never resolves a dynamic type by name: every cache record is a
// fixed, known struct, so Serialize only needs to walk fields in a
// stable order.
type Serializable interface {
	Serialize(ar Archive)
}

// Archive is either reading or writing, never both; the same
// Serialize method bodies run in both directions so a struct's wire
// layout can't drift between encode and decode.
type Archive interface {
	Loading() bool
	Error() error

	Byte(v *byte)
	Bool(v *bool)
	Int32(v *int32)
	Int64(v *int64)
	Uint32(v *uint32)
	Uint64(v *uint64)
	String(v *string)
	Bytes(v *[]byte)
	Fingerprint(v *Fingerprint)

	Serializable(v Serializable)
}

type archiveWriter struct {
	w   io.Writer
	err error
}

// NewArchiveWriter returns an Archive that serializes into w.
func NewArchiveWriter(w io.Writer) Archive {
	return &archiveWriter{w: w}
}

func (a *archiveWriter) Loading() bool { return false }
func (a *archiveWriter) Error() error  { return a.err }

func (a *archiveWriter) write(b []byte) {
	if a.err != nil {
		return
	}
	_, a.err = a.w.Write(b)
}

func (a *archiveWriter) Byte(v *byte) { a.write([]byte{*v}) }
func (a *archiveWriter) Bool(v *bool) {
	var b byte
	if *v {
		b = 1
	}
	a.Byte(&b)
}
func (a *archiveWriter) Int32(v *int32) {
	u := uint32(*v)
	a.Uint32(&u)
}
func (a *archiveWriter) Int64(v *int64) {
	u := uint64(*v)
	a.Uint64(&u)
}
func (a *archiveWriter) Uint32(v *uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], *v)
	a.write(buf[:])
}
func (a *archiveWriter) Uint64(v *uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], *v)
	a.write(buf[:])
}
func (a *archiveWriter) String(v *string) {
	n := uint32(len(*v))
	a.Uint32(&n)
	a.write([]byte(*v))
}
func (a *archiveWriter) Bytes(v *[]byte) {
	n := uint32(len(*v))
	a.Uint32(&n)
	a.write(*v)
}
func (a *archiveWriter) Fingerprint(v *Fingerprint) { a.write(v[:]) }

func (a *archiveWriter) Serializable(v Serializable) {
	if a.err != nil {
		return
	}
	v.Serialize(a)
}

type archiveReader struct {
	r   io.Reader
	err error
}

// NewArchiveReader returns an Archive that deserializes from r.
func NewArchiveReader(r io.Reader) Archive {
	return &archiveReader{r: r}
}

func (a *archiveReader) Loading() bool { return true }
func (a *archiveReader) Error() error  { return a.err }

func (a *archiveReader) read(b []byte) {
	if a.err != nil {
		return
	}
	_, a.err = io.ReadFull(a.r, b)
}

func (a *archiveReader) Byte(v *byte) {
	var buf [1]byte
	a.read(buf[:])
	*v = buf[0]
}
func (a *archiveReader) Bool(v *bool) {
	var b byte
	a.Byte(&b)
	*v = b != 0
}
func (a *archiveReader) Int32(v *int32) {
	var u uint32
	a.Uint32(&u)
	*v = int32(u)
}
func (a *archiveReader) Int64(v *int64) {
	var u uint64
	a.Uint64(&u)
	*v = int64(u)
}
func (a *archiveReader) Uint32(v *uint32) {
	var buf [4]byte
	a.read(buf[:])
	*v = binary.LittleEndian.Uint32(buf[:])
}
func (a *archiveReader) Uint64(v *uint64) {
	var buf [8]byte
	a.read(buf[:])
	*v = binary.LittleEndian.Uint64(buf[:])
}
func (a *archiveReader) String(v *string) {
	var n uint32
	a.Uint32(&n)
	if a.err != nil || n == 0 {
		*v = ""
		return
	}
	buf := make([]byte, n)
	a.read(buf)
	*v = string(buf)
}
func (a *archiveReader) Bytes(v *[]byte) {
	var n uint32
	a.Uint32(&n)
	if a.err != nil || n == 0 {
		*v = nil
		return
	}
	buf := make([]byte, n)
	a.read(buf)
	*v = buf
}
func (a *archiveReader) Fingerprint(v *Fingerprint) { a.read(v[:]) }

func (a *archiveReader) Serializable(v Serializable) {
	if a.err != nil {
		return
	}
	v.Serialize(a)
}
