package pico

// TLV field layout. All offsets are in bytes from the start of a field.
// The original device tooling worked on space-separated hex dumps; the
// character offsets there map to byte offsets divided by three.
const (
	fieldNumberOffset = 0
	fieldTypeOffset   = 1

	// Field type codes as they appear on the wire.
	fieldTypeNumber   = 1 // two big-endian 16-bit values
	fieldTypeOptional = 3 // two values, or the "no data" sentinel
	fieldTypeText     = 4 // zero-terminated byte string

	numberPayloadOffset = 2
	numberFieldSize     = 7

	optionalPayloadOffset = 7
	optionalFieldSize     = 12

	textPayloadOffset = 7
	textTrailerSize   = 2
)

// optionalSentinel is the reserved "no data" bit pattern, distinct from zero.
var optionalSentinel = [4]byte{0x7F, 0xFF, 0xFF, 0xFF}

// Field is one decoded TLV value: two packed integers, the absence marker,
// or a text string, depending on the field type.
type Field struct {
	A      uint16
	B      uint16
	Absent bool
	Text   string
}

// reader is a bounds-checked cursor over one response buffer.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) byteAt(off int) (byte, error) {
	i := r.pos + off
	if i < 0 || i >= len(r.buf) {
		return 0, ErrShortBuffer
	}
	return r.buf[i], nil
}

func (r *reader) uint16At(off int) (uint16, error) {
	hi, err := r.byteAt(off)
	if err != nil {
		return 0, err
	}
	lo, err := r.byteAt(off + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (r *reader) advance(n int) {
	r.pos += n
}

// decodeField decodes the field at the cursor and advances past it.
func decodeField(r *reader) (int, Field, error) {
	num, err := r.byteAt(fieldNumberOffset)
	if err != nil {
		return 0, Field{}, err
	}
	typ, err := r.byteAt(fieldTypeOffset)
	if err != nil {
		return 0, Field{}, err
	}

	switch int(typ) {
	case fieldTypeNumber:
		a, err := r.uint16At(numberPayloadOffset)
		if err != nil {
			return 0, Field{}, err
		}
		b, err := r.uint16At(numberPayloadOffset + 2)
		if err != nil {
			return 0, Field{}, err
		}
		r.advance(numberFieldSize)
		return int(num), Field{A: a, B: b}, nil

	case fieldTypeOptional:
		if r.isSentinelAt(optionalPayloadOffset) {
			r.advance(optionalFieldSize)
			return int(num), Field{Absent: true}, nil
		}
		a, err := r.uint16At(optionalPayloadOffset)
		if err != nil {
			return 0, Field{}, err
		}
		b, err := r.uint16At(optionalPayloadOffset + 2)
		if err != nil {
			return 0, Field{}, err
		}
		r.advance(optionalFieldSize)
		return int(num), Field{A: a, B: b}, nil

	case fieldTypeText:
		text, n, err := r.textAt(textPayloadOffset)
		if err != nil {
			return 0, Field{}, err
		}
		r.advance(textPayloadOffset + n + textTrailerSize)
		return int(num), Field{Text: text}, nil
	}

	return 0, Field{}, &UnknownFieldTypeError{Type: int(typ)}
}

func (r *reader) isSentinelAt(off int) bool {
	for i, want := range optionalSentinel {
		b, err := r.byteAt(off + i)
		if err != nil || b != want {
			return false
		}
	}
	return true
}

// textAt reads bytes starting at off up to, not including, the 0x00
// terminator. Returns the string and the number of bytes consumed before
// the terminator.
func (r *reader) textAt(off int) (string, int, error) {
	var text []byte
	for i := 0; ; i++ {
		b, err := r.byteAt(off + i)
		if err != nil {
			return "", 0, err
		}
		if b == 0x00 {
			return string(text), i, nil
		}
		text = append(text, b)
	}
}
