// Package cpu exposes the handful of privileged amd64 instructions that the
// rest of the kernel needs.
package cpu

// Halt disables interrupts and stops instruction execution.
func Halt()

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)
