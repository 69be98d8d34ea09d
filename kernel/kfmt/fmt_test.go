package kfmt

import (
	"bytes"
	"testing"
)

func TestPrintf(t *testing.T) {
	defer func() {
		outputSink = nil
	}()

	// mute vet warnings about malformed printf formatting strings
	printfn := Printf

	specs := []struct {
		fn        func()
		expOutput string
	}{
		{func() { printfn("no args") }, "no args"},
		{func() { printfn("100%% literal") }, "100% literal"},
		{func() { printfn("%t", true) }, "true"},
		{func() { printfn("%41t", false) }, "false"},
		{func() { printfn("%s arg", "STRING") }, "STRING arg"},
		{func() { printfn("%s arg", []byte("BYTE SLICE")) }, "BYTE SLICE arg"},
		{func() { printfn("'%4s' arg with padding", "ABC") }, "' ABC' arg with padding"},
		{func() { printfn("'%4s' arg longer than padding", "ABCDE") }, "'ABCDE' arg longer than padding"},
		{func() { printfn("'%5s'", []byte("AB")) }, "'   AB'"},
		{func() { printfn("uint arg: %d", uint8(10)) }, "uint arg: 10"},
		{func() { printfn("uint arg: %o", uint16(0777)) }, "uint arg: 777"},
		{func() { printfn("uint arg: 0x%x", uint32(0xbadf00d)) }, "uint arg: 0xbadf00d"},
		{func() { printfn("uint arg: %d", uint(42)) }, "uint arg: 42"},
		{func() { printfn("uintptr arg: 0x%x", uintptr(0xfd000000)) }, "uintptr arg: 0xfd000000"},
		{func() { printfn("'%10d'", uint64(123)) }, "'       123'"},
		{func() { printfn("'%4o'", uint64(0777)) }, "'0777'"},
		{func() { printfn("'0x%10x'", uint64(0xbadf00d)) }, "'0x000badf00d'"},
		{func() { printfn("'0x%5x'", int64(0xbadf00d)) }, "'0xbadf00d'"},
		{func() { printfn("%d", 0) }, "0"},
		{func() { printfn("%d", int8(-12)) }, "-12"},
		{func() { printfn("'%4d'", int16(-12)) }, "' -12'"},
		{func() { printfn("'%5x'", int32(-0xb)) }, "'-000b'"},
		{func() { printfn("%d", int64(-9223372036854775807)) }, "-9223372036854775807"},
		{func() { printfn("'%40d'", 1) }, "'                              1'"},
		{func() { printfn("%d %d", 1) }, "1 (MISSING)"},
		{func() { printfn("%d", "foo") }, "%!(WRONGTYPE)"},
		{func() { printfn("%s", 1) }, "%!(WRONGTYPE)"},
		{func() { printfn("%t", 1) }, "%!(WRONGTYPE)"},
		{func() { printfn("%d", 1, 2) }, "1%!(EXTRA)"},
		{func() { printfn("trailing %") }, "trailing %!(NOVERB)"},
		{func() { printfn("%q", 1) }, "%!(NOVERB)%!(EXTRA)"},
	}

	var buf bytes.Buffer
	SetOutputSink(&buf)

	for specIndex, spec := range specs {
		buf.Reset()
		spec.fn()

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected to get %q; got %q", specIndex, spec.expOutput, got)
		}
	}
}

func TestPrintfToRingBuffer(t *testing.T) {
	defer func() {
		outputSink = nil
		earlyBuf.rIndex, earlyBuf.wIndex = 0, 0
	}()

	outputSink = nil
	earlyBuf.rIndex, earlyBuf.wIndex = 0, 0

	Printf("early %s %d\n", "boot", 1)

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "early boot 1\n", buf.String(); got != exp {
		t.Fatalf("expected early output %q to be replayed; got %q", exp, got)
	}

	if GetOutputSink() != &buf {
		t.Fatal("expected GetOutputSink to return the attached sink")
	}
}

func TestActiveSink(t *testing.T) {
	defer func() {
		outputSink = nil
		earlyBuf.rIndex, earlyBuf.wIndex = 0, 0
	}()

	outputSink = nil
	earlyBuf.rIndex, earlyBuf.wIndex = 0, 0

	w := ActiveSink()
	Fprintf(w, "before %d;", 1)

	var buf bytes.Buffer
	SetOutputSink(&buf)
	Fprintf(w, "after %d", 2)

	if exp, got := "before 1;after 2", buf.String(); got != exp {
		t.Fatalf("expected ActiveSink to follow the attached sink; got %q", got)
	}
}
