package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAllocateAndAccess(t *testing.T) {
	m := NewPagedMemory()
	assert.Equal(t, 0, m.PageCount())
	assert.Equal(t, Inaccessible, m.Access(0))

	m.Allocate(0, ReadOnly)
	m.Allocate(3, ReadWrite)
	assert.Equal(t, 2, m.PageCount())
	assert.Equal(t, ReadOnly, m.Access(0))
	assert.Equal(t, ReadWrite, m.Access(3))
	assert.Equal(t, Inaccessible, m.Access(1))

	// replacing a page zeroes it and swaps the mode
	require.NoError(t, m.Write(3*PageSize, []byte{0xff}))
	m.Allocate(3, ReadOnly)
	b, err := m.Read(3*PageSize, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(0), b[0])
}

func TestMemoryReadWriteRoundTrip(t *testing.T) {
	m := NewPagedMemory()
	m.Allocate(0, ReadWrite)

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, m.Write(100, data))
	got, err := m.Read(100, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// reads are idempotent
	again, err := m.Read(100, len(data))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestMemoryCrossPage(t *testing.T) {
	m := NewPagedMemory()
	m.Allocate(0, ReadWrite)
	m.Allocate(1, ReadWrite)

	data := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	require.NoError(t, m.Write(PageSize-2, data))
	got, err := m.Read(PageSize-2, 4)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMemoryReadFaults(t *testing.T) {
	m := NewPagedMemory()

	_, err := m.Read(5*PageSize+7, 1)
	var pf *PageFault
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, uint64(5), pf.Page)
	assert.False(t, pf.Write)

	// a readable page followed by an unmapped one faults on the second
	m.Allocate(0, ReadOnly)
	_, err = m.Read(PageSize-2, 4)
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, uint64(1), pf.Page)
}

func TestMemoryWriteFaults(t *testing.T) {
	m := NewPagedMemory()
	m.Allocate(0, ReadOnly)

	err := m.Write(10, []byte{1})
	var pf *PageFault
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, uint64(0), pf.Page)
	assert.True(t, pf.Write)
}

func TestMemoryWriteAtomicity(t *testing.T) {
	m := NewPagedMemory()
	m.Allocate(0, ReadWrite)
	m.Allocate(1, ReadOnly)

	// the range straddles into a read-only page; nothing may be written
	err := m.Write(PageSize-2, []byte{1, 2, 3, 4})
	var pf *PageFault
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, uint64(1), pf.Page)

	got, err := m.Read(PageSize-2, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, got)
}

func TestMemoryReadOnlyReadable(t *testing.T) {
	m := NewPagedMemory()
	m.Allocate(0, ReadOnly)
	_, err := m.Read(0, PageSize)
	assert.NoError(t, err)
}

func TestMemoryZeroLengthWrite(t *testing.T) {
	m := NewPagedMemory()
	assert.NoError(t, m.Write(0, nil))
}
