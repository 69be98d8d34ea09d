package vbe

import (
	"testing"
	"unsafe"
	"vbecon/kernel"
)

func TestPhysRegion(t *testing.T) {
	defer func(origTranslate func(uintptr) (uintptr, *kernel.Error)) {
		translateFn = origTranslate
	}(translateFn)

	var backing [modeInfoSize]byte
	for i := range backing {
		backing[i] = byte(i)
	}
	addr := uintptr(unsafe.Pointer(&backing[0]))

	var translated []uintptr
	translateFn = func(virtAddr uintptr) (uintptr, *kernel.Error) {
		translated = append(translated, virtAddr)
		return virtAddr, nil
	}

	buf, release, err := physRegion(addr, modeInfoSize)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if len(buf) != modeInfoSize || cap(buf) != modeInfoSize {
		t.Fatalf("expected view to be bounded to %d bytes; got len %d, cap %d", modeInfoSize, len(buf), cap(buf))
	}

	if &buf[0] != &backing[0] || buf[modeInfoSize-1] != modeInfoSize-1 {
		t.Fatal("expected view to alias the requested memory")
	}

	if len(translated) != 2 || translated[0] != addr || translated[1] != addr+modeInfoSize-1 {
		t.Fatalf("expected both ends of the extent to be translated; got %v", translated)
	}
}

func TestPhysRegionErrors(t *testing.T) {
	defer func(origTranslate func(uintptr) (uintptr, *kernel.Error)) {
		translateFn = origTranslate
	}(translateFn)

	errUnmapped := &kernel.Error{Module: "test", Message: "unmapped"}

	specs := []struct {
		addr      uintptr
		size      int
		translate func(uintptr) (uintptr, *kernel.Error)
	}{
		// empty extent
		{0x5200, 0, nil},
		// null address
		{0, 16, nil},
		// extent wraps around the address space
		{^uintptr(0) - 4, 16, nil},
		// first page not mapped
		{0x5200, 16, func(uintptr) (uintptr, *kernel.Error) { return 0, errUnmapped }},
		// last page mapped somewhere else
		{0x5ff0, 32, func(virtAddr uintptr) (uintptr, *kernel.Error) {
			if virtAddr >= 0x6000 {
				return virtAddr + 0x1000, nil
			}
			return virtAddr, nil
		}},
	}

	for specIndex, spec := range specs {
		translateFn = spec.translate
		if translateFn == nil {
			translateFn = func(virtAddr uintptr) (uintptr, *kernel.Error) { return virtAddr, nil }
		}

		if _, _, err := physRegion(spec.addr, spec.size); err != errPhysRegion {
			t.Errorf("[spec %d] expected to get errPhysRegion; got %v", specIndex, err)
		}
	}
}
