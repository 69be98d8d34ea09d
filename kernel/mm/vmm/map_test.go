package vmm

import (
	"runtime"
	"testing"
	"unsafe"
	"vbecon/kernel"
	"vbecon/kernel/mm"
)

func TestNextAddrFn(t *testing.T) {
	// Dummy test to keep coverage happy
	if exp, got := uintptr(123), nextAddrFn(uintptr(123)); exp != got {
		t.Fatalf("expected nextAddrFn to return %v; got %v", exp, got)
	}
}

func TestMapAmd64(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skip("test requires amd64 runtime; skipping")
	}

	defer func(origPtePtr func(uintptr) unsafe.Pointer, origNextAddrFn func(uintptr) uintptr, origFlushTLBEntryFn func(uintptr)) {
		ptePtrFn = origPtePtr
		nextAddrFn = origNextAddrFn
		flushTLBEntryFn = origFlushTLBEntryFn
		mm.SetFrameAllocator(nil)
	}(ptePtrFn, nextAddrFn, flushTLBEntryFn)

	var physPages [pageLevels][mm.PageSize >> mm.PointerShift]pageTableEntry
	nextPhysPage := 0

	// allocFn returns pages from index 1; we keep index 0 for the P4 entry
	mm.SetFrameAllocator(func() (mm.Frame, *kernel.Error) {
		nextPhysPage++
		pageAddr := unsafe.Pointer(&physPages[nextPhysPage][0])
		return mm.Frame(uintptr(pageAddr) >> mm.PageShift), nil
	})

	pteCallCount := 0
	ptePtrFn = func(entry uintptr) unsafe.Pointer {
		pteCallCount++
		// The last 12 bits encode the page table offset in bytes
		// which we need to convert to a uint64 entry
		pteIndex := (entry & uintptr(mm.PageSize-1)) >> mm.PointerShift
		return unsafe.Pointer(&physPages[pteCallCount-1][pteIndex])
	}

	nextAddrFn = func(entry uintptr) uintptr {
		return uintptr(unsafe.Pointer(&physPages[nextPhysPage][0]))
	}

	flushTLBEntryCallCount := 0
	flushTLBEntryFn = func(uintptr) {
		flushTLBEntryCallCount++
	}

	// The framebuffer at 0xfd000000 breaks down to:
	// p4 index: 0
	// p3 index: 3
	// p2 index: 488
	// p1 index: 0
	frame := mm.Frame(0xfd000)
	levelIndices := []uint{0, 3, 488, 0}

	if err := Map(mm.Page(frame), frame, FlagPresent|FlagRW|FlagNoExecute); err != nil {
		t.Fatal(err)
	}

	for level, physPage := range physPages {
		pte := physPage[levelIndices[level]]
		if !pte.HasFlags(FlagPresent | FlagRW) {
			t.Errorf("[pte at level %d] expected entry to have FlagPresent and FlagRW set", level)
		}

		switch {
		case level < pageLevels-1:
			if pte.HasFlags(FlagNoExecute) {
				t.Errorf("[pte at level %d] expected intermediate entry not to have FlagNoExecute set", level)
			}
			if exp, got := mm.Frame(uintptr(unsafe.Pointer(&physPages[level+1][0]))>>mm.PageShift), pte.Frame(); got != exp {
				t.Errorf("[pte at level %d] expected entry frame to be %d; got %d", level, exp, got)
			}
		default:
			if !pte.HasFlags(FlagNoExecute) {
				t.Errorf("[pte at level %d] expected entry to have FlagNoExecute set", level)
			}
			if got := pte.Frame(); got != frame {
				t.Errorf("[pte at level %d] expected entry frame to be %d; got %d", level, frame, got)
			}
		}
	}

	if exp := 3; nextPhysPage != exp {
		t.Errorf("expected %d page tables to be allocated; got %d", exp, nextPhysPage)
	}

	if exp := 1; flushTLBEntryCallCount != exp {
		t.Errorf("expected flushTLBEntry to be called %d times; got %d", exp, flushTLBEntryCallCount)
	}
}

func TestMapErrorsAmd64(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skip("test requires amd64 runtime; skipping")
	}

	defer func(origPtePtr func(uintptr) unsafe.Pointer, origNextAddrFn func(uintptr) uintptr, origFlushTLBEntryFn func(uintptr)) {
		ptePtrFn = origPtePtr
		nextAddrFn = origNextAddrFn
		flushTLBEntryFn = origFlushTLBEntryFn
		mm.SetFrameAllocator(nil)
	}(ptePtrFn, nextAddrFn, flushTLBEntryFn)

	var physPages [pageLevels][mm.PageSize >> mm.PointerShift]pageTableEntry

	pteCallCount := 0
	ptePtrFn = func(entry uintptr) unsafe.Pointer {
		pteCallCount++
		pteIndex := (entry & uintptr(mm.PageSize-1)) >> mm.PointerShift
		return unsafe.Pointer(&physPages[pteCallCount-1][pteIndex])
	}

	flushTLBEntryFn = func(uintptr) {
		t.Fatal("unexpected call to flushTLBEntry")
	}

	t.Run("encounter huge page", func(t *testing.T) {
		physPages[0][0].SetFlags(FlagPresent | FlagHugePage)
		defer func() { physPages[0][0] = 0 }()

		pteCallCount = 0
		if err := Map(mm.Page(0), mm.Frame(0), FlagRW); err != errNoHugePageSupport {
			t.Fatalf("expected to get errNoHugePageSupport; got %v", err)
		}
	})

	t.Run("allocFn returns an error", func(t *testing.T) {
		expErr := &kernel.Error{Module: "test", Message: "out of memory"}
		mm.SetFrameAllocator(func() (mm.Frame, *kernel.Error) {
			return 0, expErr
		})

		pteCallCount = 0
		if err := Map(mm.Page(0), mm.Frame(0), FlagRW); err != expErr {
			t.Fatalf("expected to get %v; got %v", expErr, err)
		}

		if exp := 1; pteCallCount != exp {
			t.Fatalf("expected the walk to stop after %d level(s); got %d", exp, pteCallCount)
		}
	})

	t.Run("no frame allocator registered", func(t *testing.T) {
		mm.SetFrameAllocator(nil)

		pteCallCount = 0
		if err := Map(mm.Page(0), mm.Frame(0), FlagRW); err == nil {
			t.Fatal("expected to get an error")
		}
	})
}

func TestIdentityMap(t *testing.T) {
	defer func() { mapFn = Map }()

	var (
		gotPage  mm.Page
		gotFrame mm.Frame
		gotFlags PageTableEntryFlag
	)
	mapFn = func(page mm.Page, frame mm.Frame, flags PageTableEntryFlag) *kernel.Error {
		gotPage, gotFrame, gotFlags = page, frame, flags
		return nil
	}

	frame := mm.FrameFromAddress(0x5200)
	if err := IdentityMap(frame, FlagPresent|FlagNoExecute); err != nil {
		t.Fatal(err)
	}

	if exp := mm.Page(5); gotPage != exp || gotFrame != mm.Frame(5) {
		t.Errorf("expected page %d to be mapped to frame 5; got page %d mapped to frame %d", exp, gotPage, gotFrame)
	}

	if exp := FlagPresent | FlagNoExecute; gotFlags != exp {
		t.Errorf("expected flags to be %x; got %x", exp, gotFlags)
	}

	expErr := &kernel.Error{Module: "test", Message: "map failed"}
	mapFn = func(_ mm.Page, _ mm.Frame, _ PageTableEntryFlag) *kernel.Error {
		return expErr
	}

	if err := IdentityMap(frame, FlagPresent); err != expErr {
		t.Fatalf("expected error %v; got %v", expErr, err)
	}
}

func TestIdentityMapRange(t *testing.T) {
	defer func() { mapFn = Map }()

	specs := []struct {
		start, end mm.Frame
		failAt     int
		expCalls   int
		expErr     bool
	}{
		{mm.Frame(10), mm.Frame(10), -1, 1, false},
		{mm.Frame(0xfd000), mm.Frame(0xfd1d4), -1, 0x1d5, false},
		{mm.Frame(20), mm.Frame(10), -1, 0, false},
		{mm.Frame(10), mm.Frame(20), 3, 4, true},
	}

	expErr := &kernel.Error{Module: "test", Message: "map failed"}

	for specIndex, spec := range specs {
		calls := 0
		nextFrame := spec.start
		mapFn = func(page mm.Page, frame mm.Frame, _ PageTableEntryFlag) *kernel.Error {
			if frame != nextFrame || mm.Page(frame) != page {
				t.Errorf("[spec %d] expected identity mapping of frame %d; got page %d -> frame %d", specIndex, nextFrame, page, frame)
			}
			nextFrame++
			calls++
			if calls-1 == spec.failAt {
				return expErr
			}
			return nil
		}

		err := IdentityMapRange(spec.start, spec.end, FlagPresent|FlagRW)
		switch {
		case spec.expErr && err != expErr:
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, expErr, err)
		case !spec.expErr && err != nil:
			t.Errorf("[spec %d] unexpected error %v", specIndex, err)
		}

		if calls != spec.expCalls {
			t.Errorf("[spec %d] expected %d map calls; got %d", specIndex, spec.expCalls, calls)
		}
	}
}

func TestTranslateAmd64(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skip("test requires amd64 runtime; skipping")
	}

	defer func(origPtePtr func(uintptr) unsafe.Pointer) {
		ptePtrFn = origPtePtr
	}(ptePtrFn)

	// the virtual address just contains the page offset
	virtAddr := uintptr(1234)
	expFrame := mm.Frame(42)
	expPhysAddr := expFrame.Address() + virtAddr
	specs := [][pageLevels]bool{
		{true, true, true, true},
		{false, true, true, true},
		{true, false, true, true},
		{true, true, false, true},
		{true, true, true, false},
	}

	for specIndex, spec := range specs {
		pteCallCount := 0
		ptePtrFn = func(entry uintptr) unsafe.Pointer {
			var pte pageTableEntry
			pte.SetFrame(expFrame)
			if specs[specIndex][pteCallCount] {
				pte.SetFlags(FlagPresent)
			}
			pteCallCount++

			return unsafe.Pointer(&pte)
		}

		// An error is expected if any page level contains a non-present page
		expError := false
		for _, hasMapping := range spec {
			if !hasMapping {
				expError = true
				break
			}
		}

		physAddr, err := Translate(virtAddr)
		switch {
		case expError && err != ErrInvalidMapping:
			t.Errorf("[spec %d] expected to get ErrInvalidMapping; got %v", specIndex, err)
		case !expError && err != nil:
			t.Errorf("[spec %d] unexpected error %v", specIndex, err)
		case !expError && physAddr != expPhysAddr:
			t.Errorf("[spec %d] expected phys addr to be 0x%x; got 0x%x", specIndex, expPhysAddr, physAddr)
		}
	}
}

func TestPageOffset(t *testing.T) {
	specs := []struct {
		addr uintptr
		exp  uintptr
	}{
		{0, 0},
		{0x5200, 0x200},
		{0xfd000fff, 0xfff},
		{0xfd001000, 0},
	}

	for specIndex, spec := range specs {
		if got := PageOffset(spec.addr); got != spec.exp {
			t.Errorf("[spec %d] expected offset 0x%x; got 0x%x", specIndex, spec.exp, got)
		}
	}
}
