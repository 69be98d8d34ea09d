package vmm

import (
	"unsafe"
	"vbecon/kernel/mm"
)

var (
	// ptePtrFn converts a page table entry address into a pointer. Tests
	// override it to redirect the walk to in-memory tables.
	ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
		return unsafe.Pointer(entryAddr)
	}
)

// pageTableWalker is invoked by walk with each visited page table level and
// entry. Returning false aborts the walk.
type pageTableWalker func(pteLevel uint8, pte *pageTableEntry) bool

// walk visits the page table entry that translates virtAddr at each page
// level of the page tables that are active on the calling core.
func walk(virtAddr uintptr, walkFn pageTableWalker) {
	var (
		level                            uint8
		tableAddr, entryAddr, entryIndex uintptr
	)

	// Start from the recursively mapped P4; every shift left by a level's
	// bit count adds one level of indirection through the recursive entry
	for level, tableAddr = uint8(0), pdtVirtualAddr; level < pageLevels; level, tableAddr = level+1, entryAddr {
		entryIndex = (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
		entryAddr = tableAddr + (entryIndex << mm.PointerShift)

		if !walkFn(level, (*pageTableEntry)(ptePtrFn(entryAddr))) {
			return
		}

		entryAddr <<= pageLevelBits[level]
	}
}
