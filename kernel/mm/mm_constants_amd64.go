package mm

const (
	// PointerShift is equal to log2(unsafe.Sizeof(uintptr)).
	PointerShift = uintptr(3)

	// PageShift is equal to log2(PageSize). Shifting an address right by
	// PageShift yields its page or frame number.
	PageShift = uintptr(12)

	// PageSize defines the system's page size in bytes.
	PageSize = uintptr(1 << PageShift)
)
