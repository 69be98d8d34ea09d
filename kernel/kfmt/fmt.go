// Package kfmt implements the kernel's formatted output. None of the functions
// in this package allocate, so they can be used before the Go allocator has
// been initialized and from panic paths.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize is the size of the scratch buffer used for formatting integers.
const numBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	numBuf [numBufSize]byte

	// oneByte is a shared single-byte buffer. Slicing a string into a
	// []byte would allocate so strings are emitted through it one byte
	// at a time.
	oneByte = []byte{0}

	// earlyBuf captures Printf output until an output sink is attached.
	earlyBuf ringBuffer

	// outputSink receives the output of Printf. While nil, output is
	// captured by earlyBuf.
	outputSink io.Writer
)

// SetOutputSink redirects Printf output to w and replays into it anything
// captured while no sink was attached.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuf)
	}
}

// GetOutputSink returns the currently attached output sink or nil if Printf
// output is still being captured by the early ring buffer.
func GetOutputSink() io.Writer {
	return outputSink
}

// activeSink forwards writes to whatever output sink is attached at the time
// of the write.
type activeSink struct{}

func (activeSink) Write(p []byte) (int, error) {
	doWrite(outputSink, p)
	return len(p), nil
}

// ActiveSink returns an io.Writer that always writes to the currently
// attached output sink or to the early ring buffer while no sink is attached.
// Unlike the value returned by GetOutputSink, it follows later calls to
// SetOutputSink.
func ActiveSink() io.Writer {
	return activeSink{}
}

// Printf formats according to a format specifier and writes to the active
// output sink. It supports a small subset of the fmt verbs:
//
//	%s  string or []byte
//	%d  integer, base 10 (space padded)
//	%x  integer, base 16 (zero padded)
//	%o  integer, base 8 (zero padded)
//	%t  bool
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Printf does not consult
// fmt.Stringer or error implementations; itables may not be set up yet when
// it is called.
func Printf(format string, args ...any) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...any) {
	var (
		argIndex int
		width    int
		i        int
	)

	for i < len(format) {
		if format[i] != '%' {
			emitByte(w, format[i])
			i++
			continue
		}

		// Parse optional width followed by the verb
		width = 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			doWrite(w, errNoVerb)
			break
		}

		verb := format[i]
		i++

		if verb == '%' {
			emitByte(w, '%')
			continue
		}

		if argIndex >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		switch verb {
		case 'd':
			fmtInt(w, args[argIndex], 10, width)
		case 'x':
			fmtInt(w, args[argIndex], 16, width)
		case 'o':
			fmtInt(w, args[argIndex], 8, width)
		case 's':
			fmtString(w, args[argIndex], width)
		case 't':
			fmtBool(w, args[argIndex])
		default:
			doWrite(w, errNoVerb)
			continue
		}
		argIndex++
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v any) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// fmtString left-pads string or []byte values with spaces up to width.
func fmtString(w io.Writer, v any, width int) {
	switch s := v.(type) {
	case string:
		emitRepeat(w, ' ', width-len(s))
		for i := 0; i < len(s); i++ {
			emitByte(w, s[i])
		}
	case []byte:
		emitRepeat(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtInt formats any built-in integer type in base 8, 10 or 16. Base-10
// values are padded with spaces and the rest with zeroes.
func fmtInt(w io.Writer, v any, base uint64, width int) {
	var (
		mag      uint64
		negative bool
		padCh    = byte('0')
	)

	switch n := v.(type) {
	case uint8:
		mag = uint64(n)
	case uint16:
		mag = uint64(n)
	case uint32:
		mag = uint64(n)
	case uint64:
		mag = n
	case uint:
		mag = uint64(n)
	case uintptr:
		mag = uint64(n)
	case int8:
		mag, negative = absInt(int64(n))
	case int16:
		mag, negative = absInt(int64(n))
	case int32:
		mag, negative = absInt(int64(n))
	case int64:
		mag, negative = absInt(n)
	case int:
		mag, negative = absInt(int64(n))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if base == 10 {
		padCh = ' '
	}

	if width > numBufSize-1 {
		width = numBufSize - 1
	}

	// Digits are written right-to-left starting from the end of numBuf
	pos := numBufSize
	for {
		pos--
		digit := byte(mag % base)
		if digit < 10 {
			numBuf[pos] = '0' + digit
		} else {
			numBuf[pos] = 'a' + digit - 10
		}

		if mag /= base; mag == 0 {
			break
		}
	}

	// Zero padding goes between the sign and the digits whereas space
	// padding goes before the sign.
	signLen := 0
	if negative {
		signLen = 1
	}

	if padCh == '0' {
		for numBufSize-pos+signLen < width {
			pos--
			numBuf[pos] = '0'
		}
	}

	if negative {
		pos--
		numBuf[pos] = '-'
	}

	for numBufSize-pos < width {
		pos--
		numBuf[pos] = padCh
	}

	doWrite(w, numBuf[pos:])
}

func absInt(n int64) (uint64, bool) {
	if n < 0 {
		return uint64(-n), true
	}
	return uint64(n), false
}

func emitByte(w io.Writer, b byte) {
	oneByte[0] = b
	doWrite(w, oneByte)
}

func emitRepeat(w io.Writer, b byte, count int) {
	for ; count > 0; count-- {
		emitByte(w, b)
	}
}

// doWrite hides p from escape analysis. The sink is an interface value the
// compiler cannot see through, so without noEscape every argument slice would
// be heap allocated.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyBuf.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. It mirrors the helper of the
// same name in runtime/stubs.go.
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
