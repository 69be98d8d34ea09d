// Package kmain contains the Go entrypoints that the rt0 code jumps to on the
// boot core and on every secondary core.
package kmain

import (
	"vbecon/kernel"
	"vbecon/kernel/cpu"
	"vbecon/kernel/goruntime"
	"vbecon/kernel/hal"
	"vbecon/kernel/kfmt"
	"vbecon/kernel/mm/pmm"
	"vbecon/multiboot"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// Overridden by tests.
	pmmInitFn        = pmm.Init
	goruntimeInitFn  = goruntime.Init
	detectHardwareFn = hal.DetectHardware
	halInitAPFn      = hal.InitAP
	panicFn          = kfmt.Panic
	cpuHaltFn        = cpu.Halt
)

// Kmain is the only Go symbol that is visible (exported) from the rt0 initialization
// code. This function is invoked by the rt0 assembly code after setting up the GDT
// and setting up a a minimal g0 struct that allows Go code using the 4K stack
// allocated by the assembly code.
//
// The rt0 code passes the address of the multiboot info payload provided by the
// bootloader as well as the physical addresses for the kernel start/end.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	var err *kernel.Error
	if err = pmmInitFn(kernelStart, kernelEnd); err != nil {
		panicFn(err)
		return
	} else if err = goruntimeInitFn(); err != nil {
		panicFn(err)
		return
	}

	if name := multiboot.GetBootLoaderName(); name != "" {
		kfmt.Printf("[kmain] booted by %s\n", name)
	}

	detectHardwareFn()

	// Use panicFn instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}

// KmainAP is invoked by the rt0 code of each secondary core once the core
// runs in long mode on its own page tables. It maps the framebuffer for the
// core and parks it.
//
//go:noinline
func KmainAP() {
	if err := halInitAPFn(); err != nil {
		panicFn(err)
		return
	}

	for {
		cpuHaltFn()
	}
}
