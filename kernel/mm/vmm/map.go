// Package vmm manipulates the page tables that are active on the calling core.
package vmm

import (
	"unsafe"
	"vbecon/kernel"
	"vbecon/kernel/cpu"
	"vbecon/kernel/mm"
)

var (
	// nextAddrFn is used by tests to override the nextTableAddr
	// calculations used by Map. When compiling the kernel this function
	// will be automatically inlined.
	nextAddrFn = func(entryAddr uintptr) uintptr {
		return entryAddr
	}

	// flushTLBEntryFn is used by tests to override calls to flushTLBEntry
	// which will cause a fault if called in user-mode.
	flushTLBEntryFn = cpu.FlushTLBEntry

	// mapFn is used by tests and is automatically inlined by the compiler.
	mapFn = Map

	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}
)

// Map establishes a mapping between a virtual page and a physical memory
// frame in the page tables that are active on the calling core. Missing
// intermediate tables are allocated with mm.AllocFrame and cleared. An
// allocation failure is returned unchanged.
func Map(page mm.Page, frame mm.Frame, flags PageTableEntryFlag) *kernel.Error {
	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		// Last level: install the frame and drop any stale TLB entry
		if pteLevel == pageLevels-1 {
			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(flags)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		if !pte.HasFlags(FlagPresent) {
			var newTableFrame mm.Frame
			if newTableFrame, err = mm.AllocFrame(); err != nil {
				return false
			}

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagPresent | FlagRW)

			// The new table is now reachable through the recursive
			// mapping; clear it before the walk descends into it
			nextTableAddr := (uintptr(unsafe.Pointer(pte)) << pageLevelBits[pteLevel+1])
			kernel.Memset(nextAddrFn(nextTableAddr), 0, mm.PageSize)
		}

		return true
	})

	return err
}

// IdentityMap maps frame to the virtual page with the same index so that the
// physical address of every byte in the frame becomes usable as a virtual
// address on the calling core.
func IdentityMap(frame mm.Frame, flags PageTableEntryFlag) *kernel.Error {
	return mapFn(mm.Page(frame), frame, flags)
}

// IdentityMapRange identity-maps every frame in [start, end]. It stops at the
// first failed mapping and returns its error.
func IdentityMapRange(start, end mm.Frame, flags PageTableEntryFlag) *kernel.Error {
	var err *kernel.Error

	mm.FrameRangeInclusive(start, end, func(frame mm.Frame) bool {
		err = mapFn(mm.Page(frame), frame, flags)
		return err == nil
	})

	return err
}

// Translate returns the physical address that corresponds to the supplied
// virtual address or ErrInvalidMapping if the virtual address does not
// correspond to a mapped physical address.
func Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	pte, err := pteForAddress(virtAddr)
	if err != nil {
		return 0, err
	}

	return pte.Frame().Address() + PageOffset(virtAddr), nil
}

// PageOffset returns the offset within the page specified by a virtual
// address.
func PageOffset(virtAddr uintptr) uintptr {
	return (virtAddr & ((1 << pageLevelShifts[pageLevels-1]) - 1))
}
