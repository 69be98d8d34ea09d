package vbe

import (
	"io"
	"strconv"
	"strings"
	"vbecon/device"
	"vbecon/device/video/console/font"
	"vbecon/kernel"
	"vbecon/kernel/kfmt"
	"vbecon/multiboot"
)

var (
	// Driver describes the framebuffer console driver to the hal package.
	// It is detected before any other driver so that their logs are
	// rendered on screen.
	Driver = device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForFramebuffer,
	}

	// getBootCmdLineFn is overridden by tests.
	getBootCmdLineFn = multiboot.GetBootCmdLine

	// initFn is overridden by tests.
	initFn = initPrimary
)

// fbDriver exposes the framebuffer console to the hal package.
type fbDriver struct{}

// DriverName returns the name of this driver.
func (*fbDriver) DriverName() string {
	return "vbe_fb"
}

// DriverVersion returns the version of this driver.
func (*fbDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit maps the framebuffer and registers the console display.
func (*fbDriver) DriverInit(w io.Writer) *kernel.Error {
	info, err := initFn()
	if err != nil {
		return err
	}

	if !info.HasFramebuffer() || info.PixelCount() == 0 {
		kfmt.Fprintf(w, "no linear framebuffer reported at 0x%x\n", ModeInfoAddr)
		return nil
	}

	cols, rows := info.ConsoleSize()
	kfmt.Fprintf(w, "%dx%d framebuffer, %dx%d console, font: %s\n", info.Width, info.Height, cols, rows, activeFont().Name)
	return nil
}

// Console returns the writer that renders kernel output on the framebuffer or
// nil if no framebuffer was found.
func (*fbDriver) Console() io.Writer {
	if Active() == nil {
		return nil
	}
	return Writer
}

// probeForFramebuffer applies the framebuffer console settings from the
// kernel command line. It returns nil when the console is disabled with
// vbe=off.
func probeForFramebuffer() device.Driver {
	cmdLine := getBootCmdLineFn()

	if cmdLine["vbe"] == "off" {
		return nil
	}

	if v, ok := cmdLine["vbeModeInfo"]; ok {
		if addr, err := strconv.ParseUint(strings.TrimPrefix(v, "0x"), 16, 64); err == nil && addr != 0 {
			ModeInfoAddr = uintptr(addr)
		}
	}

	consoleFont = selectFont(cmdLine["consoleFont"])

	return &fbDriver{}
}

// selectFont returns the font called name if it is registered and has 8x16
// glyphs; otherwise it returns the default font.
func selectFont(name string) *font.Font {
	f := font.FindByName(name)
	if f == nil || f.GlyphWidth != cellWidth || f.GlyphHeight != cellHeight || f.BytesPerRow != 1 {
		return font.Default()
	}
	return f
}
