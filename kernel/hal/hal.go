// Package hal detects the hardware available to the kernel and wires the
// initialized drivers into the rest of the system.
package hal

import (
	"bytes"
	"io"
	"sort"
	"vbecon/device"
	"vbecon/device/video/vbe"
	"vbecon/kernel"
	"vbecon/kernel/kfmt"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole io.Writer

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer

	// builtinDrivers lists the drivers linked into the kernel. Package init
	// functions never run, so they are registered by kernelDrivers.
	builtinDrivers     = [...]*device.DriverInfo{&vbe.Driver}
	builtinsRegistered bool

	// Overridden by tests.
	driverListFn = kernelDrivers
	setSinkFn    = kfmt.SetOutputSink
	vbeInitAPFn  = vbe.InitAP
)

// kernelDrivers registers the builtin drivers on first use and returns the
// full driver list.
func kernelDrivers() device.DriverInfoList {
	if !builtinsRegistered {
		for _, info := range builtinDrivers {
			device.RegisterDriver(info)
		}
		builtinsRegistered = true
	}

	return device.DriverList()
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := driverListFn()
	sort.Sort(drivers)

	probe(drivers)
}

// InitAP maps the devices shared by all cores into the page tables of the
// calling secondary core.
func InitAP() *kernel.Error {
	return vbeInitAPFn()
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: kfmt.ActiveSink()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		onDriverInit(drv)
		kfmt.Fprintf(&w, "initialized\n")
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized. The first console driver with an output
// device becomes the kfmt output sink.
func onDriverInit(drv device.Driver) {
	consDrv, ok := drv.(device.ConsoleDriver)
	if !ok || devices.activeConsole != nil {
		return
	}

	cons := consDrv.Console()
	if cons == nil {
		return
	}

	devices.activeConsole = cons
	setSinkFn(cons)
}
