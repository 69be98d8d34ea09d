// Package pmm provides the physical frame allocator used while the kernel
// boots.
package pmm

import (
	"vbecon/kernel"
	"vbecon/kernel/mm"
)

var (
	// bootMemAllocator is the page allocator used when the kernel boots.
	// It supplies the frames for any page tables that the framebuffer
	// mappings need.
	bootMemAllocator BootMemAllocator
)

// Init sets up the kernel physical memory allocation sub-system and registers
// the boot allocator with the mm package.
func Init(kernelStart, kernelEnd uintptr) *kernel.Error {
	bootMemAllocator.init(kernelStart, kernelEnd)
	bootMemAllocator.printMemoryMap()
	mm.SetFrameAllocator(earlyAllocFrame)

	return nil
}

func earlyAllocFrame() (mm.Frame, *kernel.Error) {
	return bootMemAllocator.AllocFrame()
}
