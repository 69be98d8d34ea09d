package kernel

import "unsafe"

// Memset sets size bytes starting at addr to value. Instead of touching one
// byte at a time, the first byte is set and then the already initialized
// prefix is copied over the remainder, doubling its length on each pass. This
// brings the number of copy calls down to log2(size) which matters when
// clearing a whole framebuffer.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	target[0] = value
	for filled := uintptr(1); filled < size; filled *= 2 {
		copy(target[filled:], target[:filled])
	}
}
