package vbe

import (
	"unsafe"
	"vbecon/kernel"
	"vbecon/kernel/mm/vmm"
)

var (
	// physRegionFn is used by tests to back physical memory views with
	// regular Go memory.
	physRegionFn = physRegion

	// translateFn is used by tests since page table walks fault in user-mode.
	translateFn = vmm.Translate

	errPhysRegion = &kernel.Error{Module: "vbe", Message: "physical memory region is not identity-mapped"}
)

// physRegion returns a byte view of size bytes of identity-mapped physical
// memory starting at addr. The view is bounded to the requested extent. Both
// ends of the extent must translate to themselves on the calling core. The
// returned function releases the view.
func physRegion(addr uintptr, size int) ([]byte, func(), *kernel.Error) {
	if size <= 0 || addr == 0 {
		return nil, nil, errPhysRegion
	}

	last := addr + uintptr(size) - 1
	if last < addr {
		return nil, nil, errPhysRegion
	}

	for _, virtAddr := range [2]uintptr{addr, last} {
		if physAddr, err := translateFn(virtAddr); err != nil || physAddr != virtAddr {
			return nil, nil, errPhysRegion
		}
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), func() {}, nil
}
