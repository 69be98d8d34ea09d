package vmm

import "math"

const (
	// pageLevels indicates the number of page levels supported by the amd64 architecture.
	pageLevels = 4

	// ptePhysPageMask extracts the physical frame address from a page
	// table entry (bits 12-51).
	ptePhysPageMask = uintptr(0x000ffffffffff000)

	// earlyReserveTopAddr is the end of the kernel address space that
	// EarlyReserveRegion hands out. It uses table indices 510, 511, 511,
	// 511, one P4 slot below the recursive mapping.
	earlyReserveTopAddr = uintptr(0xffffff7ffffff000)
)

var (
	// pdtVirtualAddr is the virtual address of the active P4 table. The
	// last P4 entry maps the P4 onto itself, so setting every page level
	// index to 511 makes the MMU land on the P4.
	pdtVirtualAddr = uintptr(math.MaxUint64 &^ ((1 << 12) - 1))

	// pageLevelBits is the number of virtual address bits consumed by each
	// page level (512 entries per table).
	pageLevelBits = [pageLevels]uint8{9, 9, 9, 9}

	// pageLevelShifts is the shift that extracts each level's index from a
	// virtual address.
	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

const (
	// FlagPresent is set when the page is available in memory and not swapped out.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW

	// FlagUserAccessible is set if user-mode processes can access this page. If
	// not set only kernel code can access this page.
	FlagUserAccessible

	// FlagWriteThroughCaching implies write-through caching when set and write-back
	// caching if cleared.
	FlagWriteThroughCaching

	// FlagDoNotCache prevents this page from being cached if set.
	FlagDoNotCache

	// FlagAccessed is set by the CPU when this page is accessed.
	FlagAccessed

	// FlagDirty is set by the CPU when this page is modified.
	FlagDirty

	// FlagHugePage is set when using 2Mb pages instead of 4K pages.
	FlagHugePage

	// FlagGlobal prevents the TLB entry for this page from being flushed
	// when CR3 is reloaded.
	FlagGlobal

	// FlagNoExecute marks the page contents as non-executable.
	FlagNoExecute PageTableEntryFlag = 1 << 63
)
