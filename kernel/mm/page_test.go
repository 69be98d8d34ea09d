package mm

import (
	"testing"
	"vbecon/kernel"
)

func TestFrameMethods(t *testing.T) {
	for frameIndex := uint64(0); frameIndex < 128; frameIndex++ {
		frame := Frame(frameIndex)

		if !frame.Valid() {
			t.Errorf("expected frame %d to be valid", frameIndex)
		}

		if exp, got := uintptr(frameIndex<<PageShift), frame.Address(); got != exp {
			t.Errorf("expected frame (%d, index: %d) call to Address() to return %x; got %x", frame, frameIndex, exp, got)
		}
	}

	invalidFrame := InvalidFrame
	if invalidFrame.Valid() {
		t.Error("expected InvalidFrame.Valid() to return false")
	}
}

func TestFrameFromAddress(t *testing.T) {
	specs := []struct {
		input    uintptr
		expFrame Frame
	}{
		{0, Frame(0)},
		{4095, Frame(0)},
		{4096, Frame(1)},
		{0x5200, Frame(5)},
		{0xfd000000, Frame(0xfd000)},
		{0xfd000000 + 640*480*4 - 1, Frame(0xfd12b)},
	}

	for specIndex, spec := range specs {
		if got := FrameFromAddress(spec.input); got != spec.expFrame {
			t.Errorf("[spec %d] expected returned frame to be %v; got %v", specIndex, spec.expFrame, got)
		}
	}
}

func TestPageMethods(t *testing.T) {
	for pageIndex := uint64(0); pageIndex < 128; pageIndex++ {
		page := Page(pageIndex)

		if exp, got := uintptr(pageIndex<<PageShift), page.Address(); got != exp {
			t.Errorf("expected page (%d, index: %d) call to Address() to return %x; got %x", page, pageIndex, exp, got)
		}
	}

	if exp, got := Page(5), PageFromAddress(0x5234); got != exp {
		t.Errorf("expected PageFromAddress to return %v; got %v", exp, got)
	}
}

func TestFrameRangeInclusive(t *testing.T) {
	specs := []struct {
		start, end Frame
		stopAfter  int
		exp        []Frame
	}{
		{5, 5, 0, []Frame{5}},
		{10, 13, 0, []Frame{10, 11, 12, 13}},
		{10, 13, 2, []Frame{10, 11}},
		{13, 10, 0, nil},
		{InvalidFrame - 1, InvalidFrame, 0, []Frame{InvalidFrame - 1, InvalidFrame}},
	}

	for specIndex, spec := range specs {
		var got []Frame
		FrameRangeInclusive(spec.start, spec.end, func(f Frame) bool {
			got = append(got, f)
			return spec.stopAfter == 0 || len(got) < spec.stopAfter
		})

		if len(got) != len(spec.exp) {
			t.Errorf("[spec %d] expected to visit %d frames; got %d", specIndex, len(spec.exp), len(got))
			continue
		}

		for i := range got {
			if got[i] != spec.exp[i] {
				t.Errorf("[spec %d] expected visit %d to be frame %d; got %d", specIndex, i, spec.exp[i], got[i])
			}
		}
	}
}

func TestFrameAllocator(t *testing.T) {
	defer SetFrameAllocator(nil)

	SetFrameAllocator(nil)
	if _, err := AllocFrame(); err != errNoFrameAllocator {
		t.Fatalf("expected errNoFrameAllocator; got %v", err)
	}

	expErr := &kernel.Error{Module: "test", Message: "out of memory"}
	SetFrameAllocator(func() (Frame, *kernel.Error) {
		return InvalidFrame, expErr
	})
	if _, err := AllocFrame(); err != expErr {
		t.Fatalf("expected error %v; got %v", expErr, err)
	}

	SetFrameAllocator(func() (Frame, *kernel.Error) {
		return Frame(42), nil
	})
	if frame, err := AllocFrame(); err != nil || frame != 42 {
		t.Fatalf("expected to allocate frame 42; got %d, %v", frame, err)
	}
}
