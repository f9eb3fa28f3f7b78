package vm

import (
	"fmt"
)

// PageSize is the fixed page granularity of the machine.
const PageSize = 1 << 12

// AccessMode is the uniform permission of one page.
type AccessMode uint8

const (
	Inaccessible AccessMode = iota
	ReadOnly
	ReadWrite
)

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	}
	return "inaccessible"
}

func (m AccessMode) readable() bool {
	return m == ReadOnly || m == ReadWrite
}

// PageFault reports an access to a page that is unmapped or whose mode does
// not permit the access. It carries the index of the offending page.
type PageFault struct {
	Page  uint64
	Write bool
}

func (e *PageFault) Error() string {
	kind := "read"
	if e.Write {
		kind = "write"
	}
	return fmt.Sprintf("page fault: %s of page %d", kind, e.Page)
}

type page struct {
	data   [PageSize]byte
	access AccessMode
}

// PagedMemory is a sparse mapping from page index to a fixed-size page with
// an access mode. Unmapped indices behave as inaccessible.
type PagedMemory struct {
	pages map[uint64]*page
}

func NewPagedMemory() *PagedMemory {
	return &PagedMemory{pages: make(map[uint64]*page)}
}

// Allocate creates or replaces the page at index with a zero-filled buffer
// and the given mode.
func (m *PagedMemory) Allocate(pageIndex uint64, mode AccessMode) {
	m.pages[pageIndex] = &page{access: mode}
}

// PageCount reports how many pages are currently mapped.
func (m *PagedMemory) PageCount() int {
	return len(m.pages)
}

// Access reports the mode of the page at index; unmapped pages are
// inaccessible.
func (m *PagedMemory) Access(pageIndex uint64) AccessMode {
	if p, ok := m.pages[pageIndex]; ok {
		return p.access
	}
	return Inaccessible
}

// PageIndices returns the mapped page indices in no particular order.
func (m *PagedMemory) PageIndices() []uint64 {
	out := make([]uint64, 0, len(m.pages))
	for idx := range m.pages {
		out = append(out, idx)
	}
	return out
}

// Read copies length bytes starting at address into a fresh buffer. Every
// touched page must be mapped with a readable mode; the first page that is
// not aborts the read with a PageFault. Reads never mutate memory and may
// span pages.
func (m *PagedMemory) Read(address uint64, length int) ([]byte, error) {
	out := make([]byte, length)
	pos := 0
	for pos < length {
		pageIndex := (address + uint64(pos)) / PageSize
		offset := (address + uint64(pos)) % PageSize
		p, ok := m.pages[pageIndex]
		if !ok || !p.access.readable() {
			return nil, &PageFault{Page: pageIndex}
		}
		n := copy(out[pos:], p.data[offset:])
		pos += n
	}
	return out, nil
}

// Write stores data starting at address. Every touched page must be mapped
// read-write. The permission check runs over the whole range before the
// first byte is stored, so a faulting write leaves memory unchanged.
func (m *PagedMemory) Write(address uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	first := address / PageSize
	last := (address + uint64(len(data)) - 1) / PageSize
	for pageIndex := first; pageIndex <= last; pageIndex++ {
		p, ok := m.pages[pageIndex]
		if !ok || p.access != ReadWrite {
			return &PageFault{Page: pageIndex, Write: true}
		}
	}
	pos := 0
	for pos < len(data) {
		pageIndex := (address + uint64(pos)) / PageSize
		offset := (address + uint64(pos)) % PageSize
		p := m.pages[pageIndex]
		n := copy(p.data[offset:], data[pos:])
		pos += n
	}
	return nil
}

// writeUnchecked installs bytes ignoring page modes. Used by program loading
// to fill read-only pages.
func (m *PagedMemory) writeUnchecked(address uint64, data []byte) {
	pos := 0
	for pos < len(data) {
		pageIndex := (address + uint64(pos)) / PageSize
		offset := (address + uint64(pos)) % PageSize
		p, ok := m.pages[pageIndex]
		if !ok {
			p = &page{}
			m.pages[pageIndex] = p
		}
		n := copy(p.data[offset:], data[pos:])
		pos += n
	}
}
