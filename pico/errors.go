package pico

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect means the configuration connect retry budget was exhausted.
	// The process cannot proceed without a sensor registry.
	ErrConnect = errors.New("device unreachable")

	// ErrMalformedFrame marks a datagram that failed the length or marker
	// validation. The datagram is dropped, the receive loop continues.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrShortBuffer means a field claimed more payload than the buffer holds.
	ErrShortBuffer = errors.New("short buffer")

	// ErrValueAbsent marks the device's "no data" sentinel in a numeric field.
	ErrValueAbsent = errors.New("value absent")
)

// UnknownFieldTypeError stops decoding of the remaining fields in a frame.
// The frame's already decoded fields stay usable.
type UnknownFieldTypeError struct {
	Type int
}

func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("unknown field type %d", e.Type)
}

// IndexOutOfRangeError means a sensor's element slots exceed the decoded
// telemetry array. Only that sensor is skipped.
type IndexOutOfRangeError struct {
	Slot int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("element slot %d not present in frame", e.Slot)
}
