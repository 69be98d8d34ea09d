// Package goruntime contains code for bootstrapping Go runtime features such
// as the memory allocator.
//
// The runtime's OS memory and entropy hooks are replaced through
// go:redirect-from directives that tools/redirects patches into the kernel
// image. Binaries that import this package must be linked with
// -ldflags=-checklinkname=0.
package goruntime

import (
	"unsafe"
	"vbecon/kernel"
	"vbecon/kernel/mm"
	"vbecon/kernel/mm/vmm"
)

var (
	mapFn                = vmm.Map
	earlyReserveRegionFn = vmm.EarlyReserveRegion
	frameAllocFn         = mm.AllocFrame
	memsetFn             = kernel.Memset
	setPhysPageSizeFn    = setPhysPageSize
	mallocInitFn         = mallocInit
	cpuInitFn            = cpuInit
	randInitFn           = randInit
	algInitFn            = algInit
	modulesInitFn        = modulesInit
	typeLinksInitFn      = typeLinksInit
	itabsInitFn          = itabsInit

	// A seed for the pseudo-random number generator used by readRandom
	prngSeed = 0xdeadc0de

	errSysMap = &kernel.Error{Module: "goruntime", Message: "unable to map pages for the Go allocator"}
)

// physPageSize is normally populated by the runtime from the auxiliary vector.
//
//go:linkname physPageSize runtime.physPageSize
var physPageSize uintptr

//go:linkname mallocInit runtime.mallocinit
func mallocInit()

//go:linkname cpuInit runtime.cpuinit
func cpuInit(env string)

//go:linkname randInit runtime.randinit
func randInit()

//go:linkname algInit runtime.alginit
func algInit()

//go:linkname modulesInit runtime.modulesinit
func modulesInit()

//go:linkname typeLinksInit runtime.typelinksinit
func typeLinksInit()

//go:linkname itabsInit runtime.itabsinit
func itabsInit()

func setPhysPageSize(size uintptr) { physPageSize = size }

func roundUpToPage(size uintptr) uintptr {
	return (size + mm.PageSize - 1) & ^(mm.PageSize - 1)
}

// sysReserveOS reserves address space without allocating any memory or
// establishing any page mappings. Page-aligned hints are honored since the
// whole address space belongs to the kernel; any other request is served
// from the early reservation area.
//
// This function replaces runtime.sysReserveOS and is required for
// initializing the Go allocator.
//
//go:redirect-from runtime.sysReserveOS
//go:nosplit
func sysReserveOS(v unsafe.Pointer, n uintptr, _ string) unsafe.Pointer {
	if hint := uintptr(v); hint != 0 && hint&(mm.PageSize-1) == 0 {
		return v
	}

	regionStartAddr, err := earlyReserveRegionFn(roundUpToPage(n))
	if err != nil {
		return nil
	}

	return unsafe.Pointer(regionStartAddr)
}

// sysMapOS backs a previously reserved region with zeroed physical frames.
// The kernel installs no page fault handler so every page is mapped eagerly.
//
// This function replaces runtime.sysMapOS and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysMapOS
//go:nosplit
func sysMapOS(v unsafe.Pointer, n uintptr, _ string) {
	if err := mapRegion(uintptr(v), n); err != nil {
		panic(err)
	}
}

// sysAllocOS reserves enough physical frames to satisfy the allocation
// request and establishes a contiguous virtual page mapping for them returning
// back the pointer to the virtual region start.
//
// This function replaces runtime.sysAllocOS and is required for initializing
// the Go allocator.
//
//go:redirect-from runtime.sysAllocOS
//go:nosplit
func sysAllocOS(n uintptr, _ string) unsafe.Pointer {
	regionStartAddr, err := earlyReserveRegionFn(roundUpToPage(n))
	if err != nil {
		return nil
	}

	if err = mapRegion(regionStartAddr, n); err != nil {
		return nil
	}

	return unsafe.Pointer(regionStartAddr)
}

// mapRegion maps and clears every page overlapping [addr, addr+size).
//
//go:nosplit
func mapRegion(addr, size uintptr) *kernel.Error {
	regionStartAddr := addr & ^(mm.PageSize - 1)
	pageCount := roundUpToPage(addr+size-regionStartAddr) >> mm.PageShift

	mapFlags := vmm.FlagPresent | vmm.FlagNoExecute | vmm.FlagRW
	for page := mm.PageFromAddress(regionStartAddr); pageCount > 0; pageCount, page = pageCount-1, page+1 {
		frame, err := frameAllocFn()
		if err != nil {
			return err
		}

		if err = mapFn(page, frame, mapFlags); err != nil {
			return err
		}

		memsetFn(page.Address(), 0, mm.PageSize)
	}

	return nil
}

// sysNoop replaces the runtime hooks that advise the host OS about page
// usage. Mapped pages are never handed back, so there is nothing to do.
//
//go:redirect-from runtime.sysUsedOS
//go:redirect-from runtime.sysUnusedOS
//go:redirect-from runtime.sysHugePageOS
//go:redirect-from runtime.sysNoHugePageOS
//go:redirect-from runtime.sysFreeOS
//go:nosplit
func sysNoop(_ unsafe.Pointer, _ uintptr) {}

// nanotime1 returns a monotonically increasing clock value. This is a dummy
// implementation as the kernel does not program a timer.
//
// This function replaces runtime.nanotime1 and is invoked by the Go allocator
// when a span allocation is performed.
//
//go:redirect-from runtime.nanotime1
//go:nosplit
func nanotime1() int64 {
	// Use a dummy loop to prevent the compiler from inlining this function.
	for i := 0; i < 100; i++ {
	}
	return 1
}

// readRandom populates the given slice with random data. The runtime reads
// it from the getrandom syscall but since this is not available, we use a
// prng instead.
//
//go:redirect-from runtime.readRandom
//go:nosplit
func readRandom(r []byte) int {
	for i := 0; i < len(r); i++ {
		prngSeed = (prngSeed * 58321) + 11113
		r[i] = byte((prngSeed >> 16) & 255)
	}
	return len(r)
}

// Init enables support for various Go runtime features. It must be called
// after the physical memory allocator is ready. After a call to Init the
// following runtime features become available for use:
//   - heap memory allocation (new, make e.t.c)
//   - map primitives
//   - interfaces
func Init() *kernel.Error {
	setPhysPageSizeFn(mm.PageSize)
	mallocInitFn()
	cpuInitFn("")     // must run before alginit
	randInitFn()      // seeds the hash implementation via readRandom
	algInitFn()       // setup hash implementation for map keys
	modulesInitFn()   // provides activeModules
	typeLinksInitFn() // uses maps, activeModules
	itabsInitFn()     // uses activeModules

	return nil
}

func init() {
	// Dummy calls so the linker keeps the redirect targets. The kernel never
	// runs package init functions.
	var zeroPtr = unsafe.Pointer(uintptr(0))

	sysReserveOS(zeroPtr, 0, "")
	sysMapOS(zeroPtr, 0, "")
	sysAllocOS(0, "")
	sysNoop(zeroPtr, 0)
	readRandom(nil)
	_ = nanotime1()
}
