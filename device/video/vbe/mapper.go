package vbe

import (
	"unsafe"
	"vbecon/device/tty"
	"vbecon/device/video/console/font"
	"vbecon/kernel"
	"vbecon/kernel/mm"
	"vbecon/kernel/mm/vmm"
)

const (
	// DefaultModeInfoAddr is the physical address where the boot stage
	// stores the mode info record of the active video mode.
	DefaultModeInfoAddr = uintptr(0x5200)

	bytesPerPixel = 4

	modeInfoPageFlags    = vmm.FlagPresent | vmm.FlagNoExecute
	framebufferPageFlags = vmm.FlagPresent | vmm.FlagRW | vmm.FlagNoExecute
)

var (
	// ModeInfoAddr is the physical address of the mode info record. It can
	// be overridden from the kernel command line.
	ModeInfoAddr = DefaultModeInfoAddr

	// consoleFont provides the glyphs of the console. It must be an 8x16
	// font with one byte per row. The default font is used while nil.
	consoleFont *font.Font

	// Overridden by tests.
	identityMapFn      = vmm.IdentityMap
	identityMapRangeFn = vmm.IdentityMapRange
	memsetFn           = kernel.Memset

	errAlreadyInitialized = &kernel.Error{Module: "vbe", Message: "framebuffer console already initialized"}
)

// Init runs on the boot core. It maps the mode info record and the
// framebuffer into the active page tables, clears the framebuffer and
// registers a Display that renders a terminal sized to the framebuffer.
//
// Init returns nil without registering anything when the firmware did not
// set up a linear framebuffer or when the framebuffer cannot hold a single
// character cell. Mapping errors are returned unchanged.
func Init() *kernel.Error {
	_, err := initPrimary()
	return err
}

// initPrimary implements Init and also returns the decoded mode info.
func initPrimary() (*ModeInfo, *kernel.Error) {
	if Active() != nil {
		return nil, errAlreadyInitialized
	}

	return mapFramebuffer(true)
}

// InitAP runs on each secondary core and maps the mode info record and the
// framebuffer into that core's page tables. The framebuffer is neither
// cleared nor is a second Display created.
func InitAP() *kernel.Error {
	_, err := mapFramebuffer(false)
	return err
}

// mapFramebuffer identity-maps the mode info page and the framebuffer pages.
// When zeroAndConstruct is set it also clears the framebuffer and registers a
// Display for it. The decoded mode info is returned.
func mapFramebuffer(zeroAndConstruct bool) (*ModeInfo, *kernel.Error) {
	if err := identityMapFn(mm.FrameFromAddress(ModeInfoAddr), modeInfoPageFlags); err != nil {
		return nil, err
	}

	info, err := readModeInfo(ModeInfoAddr)
	if err != nil {
		return nil, err
	}

	pixels := info.PixelCount()
	if !info.HasFramebuffer() || pixels == 0 {
		return info, nil
	}

	fbAddr := uintptr(info.PhysBasePtr)
	fbSize := pixels * bytesPerPixel
	if err = identityMapRangeFn(
		mm.FrameFromAddress(fbAddr),
		mm.FrameFromAddress(fbAddr+fbSize-1),
		framebufferPageFlags,
	); err != nil {
		return nil, err
	}

	if !zeroAndConstruct {
		return info, nil
	}

	memsetFn(fbAddr, 0, fbSize)

	buf, _, err := physRegionFn(fbAddr, int(fbSize))
	if err != nil {
		return nil, err
	}

	cols, rows := info.ConsoleSize()
	if cols == 0 || rows == 0 {
		return info, nil
	}

	if !register(NewDisplay(
		uint32(info.Width),
		uint32(info.Height),
		unsafe.Slice((*uint32)(unsafe.Pointer(&buf[0])), pixels),
		tty.NewVT(cols, rows),
		activeFont().Data,
	)) {
		return nil, errAlreadyInitialized
	}

	return info, nil
}

// activeFont returns the font selected on the command line or the default
// font.
func activeFont() *font.Font {
	if consoleFont == nil {
		return font.Default()
	}
	return consoleFont
}
