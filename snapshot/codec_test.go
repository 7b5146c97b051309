package snapshot

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/heapkit/gc"
)

// encodedFixture builds a heap, captures it, and returns the encoded
// bytes for corruption tests.
func encodedFixture(t *testing.T) []byte {
	t.Helper()
	h, _ := buildHeap(t)
	var buf bytes.Buffer
	require.NoError(t, Capture(h).Write(&buf))
	return buf.Bytes()
}

// header encodes a snapshot header promising the given record counts.
func header(cells, roots, strs uint32) []byte {
	b := append([]byte(nil), snapshotMagic...)
	b = binary.LittleEndian.AppendUint16(b, formatVersion)
	b = binary.LittleEndian.AppendUint16(b, 0)
	b = binary.LittleEndian.AppendUint64(b, 0)
	b = binary.LittleEndian.AppendUint32(b, cells)
	b = binary.LittleEndian.AppendUint32(b, roots)
	b = binary.LittleEndian.AppendUint32(b, strs)
	b = binary.LittleEndian.AppendUint32(b, 0)
	return b
}

func TestReadRejectsBadMagic(t *testing.T) {
	data := encodedFixture(t)
	data[0] = 'X'

	_, err := Read(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadRejectsBadVersion(t *testing.T) {
	data := encodedFixture(t)
	binary.LittleEndian.PutUint16(data[4:], 99)

	_, err := Read(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrBadVersion)
	require.Contains(t, err.Error(), "version 99")
}

func TestReadRejectsTruncatedData(t *testing.T) {
	data := encodedFixture(t)
	for _, n := range []int{0, 4, headerSize - 1, headerSize + 2, len(data) / 2, len(data) - 1} {
		_, err := Read(bytes.NewReader(data[:n]))
		require.ErrorIs(t, err, ErrTruncated, "prefix of %d bytes", n)
	}
}

func TestReadRejectsCorruptStringIndex(t *testing.T) {
	// One cell record whose type index points past the empty string table.
	data := header(1, 0, 0)
	data = binary.LittleEndian.AppendUint64(data, 1<<32)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint32(data, 7)
	data = binary.LittleEndian.AppendUint32(data, 0)

	_, err := Read(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrCorrupt)
	require.Contains(t, err.Error(), "string index 7")
}

func TestReadRejectsUnknownRootKind(t *testing.T) {
	data := header(0, 1, 1)
	data = binary.LittleEndian.AppendUint32(data, 0) // empty file string
	data = binary.LittleEndian.AppendUint64(data, 1<<32)
	data = binary.LittleEndian.AppendUint32(data, 0)
	data = binary.LittleEndian.AppendUint32(data, 12)
	data = binary.LittleEndian.AppendUint32(data, 99)

	_, err := Read(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrCorrupt)
	require.Contains(t, err.Error(), "root kind 99")
}

func TestReadRejectsHostileRecordCounts(t *testing.T) {
	// Counts promising billions of records must fail on the missing
	// bytes instead of allocating for the promise.
	_, err := Read(bytes.NewReader(header(1<<31, 1<<31, 1<<31)))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadAcceptsValidRootKinds(t *testing.T) {
	kinds := []gc.RootKind{gc.RootHandle, gc.RootMarkedVector, gc.RootConservativeVector, gc.RootEmbedder}
	data := header(0, uint32(len(kinds)), 1)
	data = binary.LittleEndian.AppendUint32(data, 0)
	for _, k := range kinds {
		data = binary.LittleEndian.AppendUint64(data, 1<<32)
		data = binary.LittleEndian.AppendUint32(data, 0)
		data = binary.LittleEndian.AppendUint32(data, 1)
		data = binary.LittleEndian.AppendUint32(data, uint32(k))
	}

	s, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Roots, len(kinds))
	for i, k := range kinds {
		require.Equal(t, k, s.Roots[i].Kind)
	}
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-snapshot")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{'x'}, 64), 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "snapshot: open")
}
