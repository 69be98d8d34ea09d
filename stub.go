package main

import "vbecon/kernel/kmain"

var multibootInfoPtr uintptr

// main makes dummy calls to the kernel entrypoints of the boot core and of the
// secondary cores. It is intentionally defined to prevent the Go compiler from
// optimizing away the real kernel code.
//
// A global variable is passed as an argument to Kmain to prevent the compiler
// from inlining the actual call and removing Kmain from the generated .o file.
func main() {
	kmain.Kmain(multibootInfoPtr, 0, 0)
	kmain.KmainAP()
}
