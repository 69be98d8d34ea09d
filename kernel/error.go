package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error so that returning one never needs the Go allocator, which
// may not be available yet when the error is raised.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
