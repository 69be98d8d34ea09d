package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	var (
		buf      bytes.Buffer
		expStr   = "the big brown fox jumped over the lazy dog"
		rb       ringBuffer
		readBuf  = make([]byte, 16)
		gotBytes []byte
	)

	t.Run("read/write", func(t *testing.T) {
		rb.wIndex, rb.rIndex = 0, 0
		rb.Write([]byte(expStr))

		if got := readAll(&rb, readBuf); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("write moves read pointer", func(t *testing.T) {
		rb.wIndex, rb.rIndex = ringBufferSize-1, 0
		rb.Write([]byte{'!'})

		if exp := 1; rb.rIndex != exp {
			t.Fatalf("expected write to push rIndex to %d; got %d", exp, rb.rIndex)
		}
	})

	t.Run("wrapped read", func(t *testing.T) {
		rb.wIndex, rb.rIndex = ringBufferSize-10, ringBufferSize-10
		rb.Write([]byte(expStr))

		gotBytes = gotBytes[:0]
		for {
			n, err := rb.Read(readBuf)
			gotBytes = append(gotBytes, readBuf[:n]...)
			if err == io.EOF {
				break
			}
		}

		if got := string(gotBytes); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("io.Copy", func(t *testing.T) {
		rb.wIndex, rb.rIndex = ringBufferSize-5, ringBufferSize-5
		rb.Write([]byte(expStr))

		buf.Reset()
		io.Copy(&buf, &rb)

		if got := buf.String(); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("overflow keeps newest bytes", func(t *testing.T) {
		rb.wIndex, rb.rIndex = 0, 0
		data := bytes.Repeat([]byte{'a'}, ringBufferSize)
		copy(data[len(data)-4:], "tail")
		rb.Write(data)

		buf.Reset()
		io.Copy(&buf, &rb)

		if exp := ringBufferSize - 1; buf.Len() != exp {
			t.Fatalf("expected to read %d bytes; got %d", exp, buf.Len())
		}

		if !bytes.HasSuffix(buf.Bytes(), []byte("tail")) {
			t.Fatal("expected the newest bytes to survive the overflow")
		}
	})
}

func readAll(rb *ringBuffer, readBuf []byte) string {
	var out []byte
	for {
		n, err := rb.Read(readBuf)
		out = append(out, readBuf[:n]...)
		if err == io.EOF {
			return string(out)
		}
	}
}
