package las

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ReadFieldUint decodes a field from a point record as raw unsigned bits.
// Signed kinds are returned without sign extension; use ReadFieldInt for a
// sign-correct view. Float kinds return their IEEE-754 bit pattern.
func ReadFieldUint(rec []byte, d FieldDescriptor) uint64 {
	if d.packed() {
		mask := byte(1<<d.BitWidth - 1)
		return uint64(rec[d.Offset] >> d.BitShift & mask)
	}
	switch d.Size {
	case 1:
		return uint64(rec[d.Offset])
	case 2:
		return uint64(binary.LittleEndian.Uint16(rec[d.Offset:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(rec[d.Offset:]))
	case 8:
		return binary.LittleEndian.Uint64(rec[d.Offset:])
	default:
		// Byte runs carry arbitrary widths; assemble at most the 8
		// low-order bytes without reading past the declared size.
		n := d.Size
		if n > 8 {
			n = 8
		}
		var v uint64
		for i := 0; i < n; i++ {
			v |= uint64(rec[d.Offset+i]) << (8 * i)
		}
		return v
	}
}

// ReadFieldInt decodes a field as a signed integer, sign-extending the
// signed kinds. Unsigned kinds pass through unchanged.
func ReadFieldInt(rec []byte, d FieldDescriptor) int64 {
	raw := ReadFieldUint(rec, d)
	if !d.Kind.Signed() {
		return int64(raw)
	}
	switch d.Kind {
	case KindInt8:
		return int64(int8(raw))
	case KindInt16:
		return int64(int16(raw))
	case KindInt32:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

// ReadFieldFloat decodes a field as a float64. Float kinds are decoded from
// their bit patterns; integer kinds are converted.
func ReadFieldFloat(rec []byte, d FieldDescriptor) float64 {
	switch d.Kind {
	case KindFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[d.Offset:])))
	case KindFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(rec[d.Offset:]))
	}
	if d.Kind.Signed() {
		return float64(ReadFieldInt(rec, d))
	}
	return float64(ReadFieldUint(rec, d))
}

// WriteFieldUint encodes an unsigned value into a point record. The value
// must fit the field's bit width or numeric kind; on failure the record is
// left unchanged and ErrValueOutOfRange is returned.
func WriteFieldUint(rec []byte, d FieldDescriptor, v uint64) error {
	if d.packed() {
		if v >= uint64(1)<<d.BitWidth {
			return fmt.Errorf("%w: %d does not fit %d-bit field %q", ErrValueOutOfRange, v, d.BitWidth, d.Name)
		}
		mask := byte(1<<d.BitWidth-1) << d.BitShift
		rec[d.Offset] = rec[d.Offset]&^mask | byte(v)<<d.BitShift&mask
		return nil
	}
	if d.Kind == KindBytes {
		return fmt.Errorf("%w: field %q is a raw byte run, not a scalar", ErrFormat, d.Name)
	}
	if d.Kind.Signed() || d.Kind.Float() {
		return fmt.Errorf("%w: field %q is not unsigned", ErrValueOutOfRange, d.Name)
	}
	if d.Size < 8 && v >= uint64(1)<<(8*d.Size) {
		return fmt.Errorf("%w: %d does not fit %d-byte field %q", ErrValueOutOfRange, v, d.Size, d.Name)
	}
	putUint(rec[d.Offset:], d.Size, v)
	return nil
}

// WriteFieldInt encodes a signed value into a point record, range-checking
// against the field's two's-complement width.
func WriteFieldInt(rec []byte, d FieldDescriptor, v int64) error {
	if d.packed() || !d.Kind.Signed() {
		if v < 0 {
			return fmt.Errorf("%w: negative value %d for field %q", ErrValueOutOfRange, v, d.Name)
		}
		return WriteFieldUint(rec, d, uint64(v))
	}
	bits := 8 * d.Size
	if d.Size < 8 {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if v < lo || v > hi {
			return fmt.Errorf("%w: %d does not fit %d-byte field %q", ErrValueOutOfRange, v, d.Size, d.Name)
		}
	}
	putUint(rec[d.Offset:], d.Size, uint64(v))
	return nil
}

// WriteFieldFloat encodes a float64 into a point record. Integer kinds are
// rounded to nearest and range-checked first.
func WriteFieldFloat(rec []byte, d FieldDescriptor, v float64) error {
	switch d.Kind {
	case KindFloat32:
		binary.LittleEndian.PutUint32(rec[d.Offset:], math.Float32bits(float32(v)))
		return nil
	case KindFloat64:
		binary.LittleEndian.PutUint64(rec[d.Offset:], math.Float64bits(v))
		return nil
	}
	r := math.Round(v)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: %v for integer field %q", ErrValueOutOfRange, v, d.Name)
	}
	if d.Kind.Signed() {
		return WriteFieldInt(rec, d, int64(r))
	}
	if r < 0 {
		return fmt.Errorf("%w: negative value %v for field %q", ErrValueOutOfRange, v, d.Name)
	}
	return WriteFieldUint(rec, d, uint64(r))
}

func putUint(b []byte, size int, v uint64) {
	switch size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

// ScaleOffset is the linear transform between a stored raw coordinate and
// its real-world value: scaled = raw*Scale + Offset.
type ScaleOffset struct {
	Scale  float64
	Offset float64
}

// Forward maps a raw stored integer to its scaled value.
func (t ScaleOffset) Forward(raw int64) float64 {
	return float64(raw)*t.Scale + t.Offset
}

// Back maps a scaled value to the nearest raw stored integer. Forward and
// Back round-trip exactly for any raw integer representable in a float64.
func (t ScaleOffset) Back(scaled float64) int64 {
	return int64(math.Round((scaled - t.Offset) / t.Scale))
}

// NormalizeDimensionName canonicalizes a dimension name the way schema VLR
// names are stored: NUL padding stripped, spaces folded to underscores,
// lower-cased. Standard coordinate names X, Y, Z keep their case so the raw
// and scaled views stay distinct.
func NormalizeDimensionName(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// Accessor resolves dimension names to field descriptors for one open file:
// the standard layout of the active point format plus the registered extra
// dimensions laid out after it.
type Accessor struct {
	layout Layout
	extras []FieldDescriptor
	byName map[string]FieldDescriptor
}

// NewAccessor builds an accessor for a point format and a set of extra
// dimensions. recordLength is the full on-disk record width; it must cover
// the base format plus all extras.
func NewAccessor(formatID uint8, recordLength int, extras []ExtraDimension) (*Accessor, error) {
	layout, err := FormatLayout(formatID)
	if err != nil {
		return nil, err
	}
	a := &Accessor{
		layout: layout,
		byName: make(map[string]FieldDescriptor, len(layout.Fields)+len(extras)),
	}
	for _, f := range layout.Fields {
		a.byName[f.Name] = f
	}
	offset := layout.Size
	for _, e := range extras {
		d, err := e.descriptor(offset)
		if err != nil {
			return nil, err
		}
		if _, dup := a.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension %q", ErrCorruptFile, d.Name)
		}
		a.extras = append(a.extras, d)
		a.byName[d.Name] = d
		offset += d.Size
	}
	if recordLength < offset {
		return nil, fmt.Errorf("%w: record length %d shorter than layout %d (format %d, %d extra bytes)",
			ErrCorruptFile, recordLength, offset, formatID, offset-layout.Size)
	}
	return a, nil
}

// Resolve returns the descriptor for a dimension name, consulting the
// standard layout first and the extra dimensions second.
func (a *Accessor) Resolve(name string) (FieldDescriptor, error) {
	if d, ok := a.byName[name]; ok {
		return d, nil
	}
	if d, ok := a.byName[NormalizeDimensionName(name)]; ok {
		return d, nil
	}
	return FieldDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownDimension, name)
}

// Names returns every resolvable dimension name in layout order, standard
// fields first, then extras.
func (a *Accessor) Names() []string {
	names := make([]string, 0, len(a.layout.Fields)+len(a.extras))
	for _, f := range a.layout.Fields {
		names = append(names, f.Name)
	}
	for _, f := range a.extras {
		names = append(names, f.Name)
	}
	return names
}

// Layout returns the standard layout the accessor was built on.
func (a *Accessor) Layout() Layout { return a.layout }

// extraWidth returns the total byte width of the registered extras.
func (a *Accessor) extraWidth() int {
	n := 0
	for _, d := range a.extras {
		n += d.Size
	}
	return n
}
