package pico

const (
	frameHeaderSize = 14

	// Decoding stops when this many bytes or fewer remain; the tail is the
	// frame checksum plus terminator.
	frameTrailerSize = 2
)

// Record maps field numbers to decoded values for one frame. Field numbers
// are only unique within one logical record; later duplicates overwrite
// earlier ones.
type Record map[int]Field

// DecodeFrame strips the fixed frame header and decodes all fields of one
// response or broadcast frame. An unknown field type truncates the frame's
// remaining fields without failing: broadcast traffic includes frame layouts
// this codec does not know. logger may be nil.
func DecodeFrame(buf []byte, logger Logger) Record {
	fields := make(Record)
	if len(buf) <= frameHeaderSize {
		return fields
	}
	r := &reader{buf: buf, pos: frameHeaderSize}
	for r.remaining() > frameTrailerSize {
		num, field, err := decodeField(r)
		if err != nil {
			if logger != nil {
				logger.Debug("frame decode stopped at offset %d: %v", r.pos, err)
			}
			break
		}
		fields[num] = field
	}
	return fields
}
