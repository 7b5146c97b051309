package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/heapkit/heapkit/gc"
)

// Binary layout, all integers little-endian. The header:
//
//	Offset  Size  Description
//	------  ----  ------------------------------------------
//	 0x00    4    'H' 'K' 'S' 'N'
//	 0x04    2    Format version (currently 1)
//	 0x06    2    Reserved, zero
//	 0x08    8    Capture time, Unix nanoseconds
//	 0x10    4    Cell record count
//	 0x14    4    Root record count
//	 0x18    4    String table entry count
//	 0x1C    4    Reserved, zero
//
// Followed by the string table (u32 byte length + UTF-8 bytes per entry),
// then cell records (u64 address, u32 size, u32 type string index,
// u32 edge count, u64 per edge), then root records (u64 address, u32 file
// string index, u32 line, u32 kind).

var snapshotMagic = []byte("HKSN")

const (
	formatVersion = 1
	headerSize    = 0x20
)

var (
	// ErrBadMagic indicates the data does not start with the snapshot
	// signature.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrBadVersion indicates a snapshot written by an incompatible
	// format revision.
	ErrBadVersion = errors.New("snapshot: unsupported format version")
	// ErrTruncated indicates the data ended inside a structure.
	ErrTruncated = errors.New("snapshot: truncated data")
	// ErrCorrupt indicates structurally invalid data, like a string
	// index past the table.
	ErrCorrupt = errors.New("snapshot: corrupt data")
)

// stringTable interns strings during encoding so repeated type names and
// file paths are stored once.
type stringTable struct {
	strings []string
	index   map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{index: make(map[string]uint32)}
}

func (t *stringTable) intern(s string) uint32 {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := uint32(len(t.strings))
	t.strings = append(t.strings, s)
	t.index[s] = i
	return i
}

// Write serializes the snapshot to w.
func (s *Snapshot) Write(w io.Writer) error {
	table := newStringTable()
	for _, c := range s.Cells {
		table.intern(c.TypeName)
	}
	for _, r := range s.Roots {
		table.intern(r.File)
	}

	buf := make([]byte, 0, headerSize+64*len(s.Cells)+24*len(s.Roots))
	buf = append(buf, snapshotMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, formatVersion)
	buf = binary.LittleEndian.AppendUint16(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.CapturedAt.UnixNano()))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Cells)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Roots)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(table.strings)))
	buf = binary.LittleEndian.AppendUint32(buf, 0)

	for _, str := range table.strings {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(str)))
		buf = append(buf, str...)
	}
	for _, c := range s.Cells {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(c.Address))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Size))
		buf = binary.LittleEndian.AppendUint32(buf, table.intern(c.TypeName))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Edges)))
		for _, e := range c.Edges {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(e))
		}
	}
	for _, r := range s.Roots {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(r.Address))
		buf = binary.LittleEndian.AppendUint32(buf, table.intern(r.File))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(r.Line))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(r.Kind))
	}

	_, err := w.Write(buf)
	return err
}

// Read parses a snapshot from r.
func Read(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	return parse(data)
}

// decoder is a bounds-checked cursor over encoded data. The first failed
// read sticks; callers check err once at the end of a structure.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) fail() {
	d.err = fmt.Errorf("offset 0x%x: %w", d.off, ErrTruncated)
}

func (d *decoder) u16() uint16 {
	if d.err != nil {
		return 0
	}
	if d.off+2 > len(d.data) {
		d.fail()
		return 0
	}
	v := binary.LittleEndian.Uint16(d.data[d.off:])
	d.off += 2
	return v
}

func (d *decoder) u32() uint32 {
	if d.err != nil {
		return 0
	}
	if d.off+4 > len(d.data) {
		d.fail()
		return 0
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

func (d *decoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	if d.off+8 > len(d.data) {
		d.fail()
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}

func (d *decoder) str(n uint32) string {
	if d.err != nil {
		return ""
	}
	if d.off+int(n) > len(d.data) {
		d.fail()
		return ""
	}
	s := string(d.data[d.off : d.off+int(n)])
	d.off += int(n)
	return s
}

func parse(data []byte) (*Snapshot, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("header: %w", ErrTruncated)
	}
	if !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic) {
		return nil, ErrBadMagic
	}

	d := &decoder{data: data, off: len(snapshotMagic)}
	version := d.u16()
	d.u16() // reserved
	capturedAt := d.u64()
	cellCount := d.u32()
	rootCount := d.u32()
	stringCount := d.u32()
	d.u32() // reserved
	if version != formatVersion {
		return nil, fmt.Errorf("version %d: %w", version, ErrBadVersion)
	}

	strings := make([]string, 0, min(int(stringCount), len(data)/4))
	for i := 0; i < int(stringCount) && d.err == nil; i++ {
		strings = append(strings, d.str(d.u32()))
	}

	lookup := func(i uint32) string {
		if d.err != nil {
			return ""
		}
		if int(i) >= len(strings) {
			d.err = fmt.Errorf("string index %d of %d: %w", i, len(strings), ErrCorrupt)
			return ""
		}
		return strings[i]
	}

	s := &Snapshot{CapturedAt: time.Unix(0, int64(capturedAt))}
	for i := 0; i < int(cellCount) && d.err == nil; i++ {
		c := CellRecord{
			Address:  gc.Address(d.u64()),
			Size:     int(d.u32()),
			TypeName: lookup(d.u32()),
		}
		edgeCount := d.u32()
		for j := 0; j < int(edgeCount) && d.err == nil; j++ {
			c.Edges = append(c.Edges, gc.Address(d.u64()))
		}
		s.Cells = append(s.Cells, c)
	}
	for i := 0; i < int(rootCount) && d.err == nil; i++ {
		r := RootRecord{
			Address: gc.Address(d.u64()),
			File:    lookup(d.u32()),
			Line:    int(d.u32()),
			Kind:    gc.RootKind(d.u32()),
		}
		if d.err == nil && r.Kind > gc.RootEmbedder {
			d.err = fmt.Errorf("root kind %d: %w", r.Kind, ErrCorrupt)
		}
		s.Roots = append(s.Roots, r)
	}
	if d.err != nil {
		return nil, d.err
	}
	return s, nil
}
