package ports

import "errors"

var (
	// ErrInterfaceNotFound is returned when a device is not among the
	// source's capture devices.
	ErrInterfaceNotFound = errors.New("interface not found")

	// ErrNoDevices indicates the source reported no capture devices.
	ErrNoDevices = errors.New("no capture devices available")

	// ErrSourceExhausted is returned by readers that will never yield
	// another buffer.
	ErrSourceExhausted = errors.New("capture source exhausted")

	// ErrMalformedFrame marks a single unusable buffer. The reader can
	// still yield the next one.
	ErrMalformedFrame = errors.New("malformed frame")
)
