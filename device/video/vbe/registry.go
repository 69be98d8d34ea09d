package vbe

import (
	"io"
	"vbecon/kernel/sync"
)

var (
	// registryLock serializes every access to the active display and its
	// terminal.
	registryLock sync.Spinlock

	// activeDisplay is set once by Init and never cleared.
	activeDisplay *Display

	// Writer renders kernel output on the active display. Writes are
	// discarded while no display is registered.
	Writer io.Writer = registryWriter{}
)

type registryWriter struct{}

func (registryWriter) Write(p []byte) (int, error) { return Write(p) }

// Active returns the registered display or nil if Init did not find a
// framebuffer.
func Active() *Display {
	registryLock.Acquire()
	defer registryLock.Release()

	return activeDisplay
}

// Write renders p on the registered display while holding the registry
// lock. It is a no-op that reports success when no display is registered.
func Write(p []byte) (int, error) {
	registryLock.Acquire()
	defer registryLock.Release()

	if activeDisplay == nil {
		return len(p), nil
	}

	return activeDisplay.Write(p)
}

// register stores d unless a display is already registered.
func register(d *Display) bool {
	registryLock.Acquire()
	defer registryLock.Release()

	if activeDisplay != nil {
		return false
	}

	activeDisplay = d
	return true
}
