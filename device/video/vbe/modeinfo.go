package vbe

import (
	"encoding/binary"
	"vbecon/kernel"
)

// modeInfoSize is the size of the packed ModeInfo record.
const modeInfoSize = 50

var errModeInfoDecode = &kernel.Error{Module: "vbe", Message: "unable to decode VBE mode info record"}

// ModeInfo is the VBE mode information block that the boot stage leaves in
// physical memory after switching to a linear framebuffer mode. Fields are
// listed in the exact order and width of the firmware record; only the
// resolution, depth and base pointer matter for rendering.
type ModeInfo struct {
	Attributes       uint16
	WinA, WinB       uint8
	Granularity      uint16
	WinSize          uint16
	SegmentA         uint16
	SegmentB         uint16
	WinFuncPtr       uint32
	BytesPerScanLine uint16

	Width, Height       uint16
	CharWidth           uint8
	CharHeight          uint8
	Planes              uint8
	BitsPerPixel        uint8
	Banks               uint8
	MemoryModel         uint8
	BankSize            uint8
	ImagePages          uint8
	Reserved0           uint8
	RedMaskSize         uint8
	RedFieldPosition    uint8
	GreenMaskSize       uint8
	GreenFieldPosition  uint8
	BlueMaskSize        uint8
	BlueFieldPosition   uint8
	RsvdMaskSize        uint8
	RsvdFieldPosition   uint8
	DirectColorModeInfo uint8
	PhysBasePtr         uint32
	OffScreenMemOffset  uint32
	OffScreenMemSize    uint16
}

// HasFramebuffer reports whether the firmware set up a linear framebuffer.
func (m *ModeInfo) HasFramebuffer() bool {
	return m.PhysBasePtr != 0
}

// PixelCount returns the number of 32-bit pixels in the framebuffer.
func (m *ModeInfo) PixelCount() uintptr {
	return uintptr(m.Width) * uintptr(m.Height)
}

// ConsoleSize returns the number of whole character cells that fit in the
// framebuffer.
func (m *ModeInfo) ConsoleSize() (cols, rows int) {
	return int(m.Width) / cellWidth, int(m.Height) / cellHeight
}

// readModeInfo decodes the mode info record stored at the identity-mapped
// physical address addr.
func readModeInfo(addr uintptr) (*ModeInfo, *kernel.Error) {
	buf, release, err := physRegionFn(addr, modeInfoSize)
	if err != nil {
		return nil, err
	}
	defer release()

	info := &ModeInfo{}
	if _, decErr := binary.Decode(buf, binary.LittleEndian, info); decErr != nil {
		return nil, errModeInfoDecode
	}

	return info, nil
}
