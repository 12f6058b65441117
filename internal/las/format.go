package las

import "fmt"

// Point data record formats 0 through 10 as defined by the ASPRS LAS
// specification (versions 1.0 through 1.4). Each format is a fixed-width
// byte layout; the format id in the header selects which optional field
// groups (RGB, GPS time, NIR, waveform packets) are present and how the
// flag bits are packed.
//
// Formats 0-5 pack four fields into the byte at offset 14 (return number,
// number of returns, scan direction, edge of flight line) and fold the
// classification flags into the classification byte at offset 15.
// Formats 6-10 widen the return counters to four bits each and split the
// flags across two bytes, adding a two-bit scanner channel and an overlap
// flag, with a full unpacked classification byte and a 16-bit scan angle.
const (
	MaxPointFormat = 10 // highest point data record format id supported

	formatCount = MaxPointFormat + 1
)

// recordSizes lists the base point record width in bytes for each format id.
// Caller-defined extra dimensions extend the record beyond these widths.
var recordSizes = [formatCount]int{20, 28, 26, 34, 57, 63, 30, 36, 38, 59, 67}

// Kind identifies the numeric encoding of a field within a point record.
// All multi-byte kinds are little-endian on disk.
type Kind uint8

const (
	KindUint8 Kind = iota
	KindInt8
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindUint64
	KindInt64
	KindFloat32
	KindFloat64
	KindBytes // opaque fixed-size byte run (undocumented extra bytes)
)

// Size returns the on-disk width of the kind in bytes. KindBytes has no
// intrinsic width; its descriptor carries the size instead.
func (k Kind) Size() int {
	switch k {
	case KindUint8, KindInt8, KindBytes:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	default:
		return 8
	}
}

// Signed reports whether the kind stores a two's-complement integer.
func (k Kind) Signed() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// Float reports whether the kind stores an IEEE-754 value.
func (k Kind) Float() bool {
	return k == KindFloat32 || k == KindFloat64
}

// FieldDescriptor locates one logical dimension inside a fixed-width point
// record. Byte-aligned fields have BitWidth zero and span Size bytes at
// Offset. Bit-packed fields live inside the single byte at Offset, BitWidth
// bits wide starting at BitShift (LSB first).
type FieldDescriptor struct {
	Name     string
	Offset   int   // byte offset within the record
	Kind     Kind  // numeric encoding
	Size     int   // byte width (Kind.Size(), or run length for KindBytes)
	BitWidth uint8 // 0 for byte-aligned fields, 1..7 for packed fields
	BitShift uint8 // bit position within the containing byte
	Scaled   bool  // raw integer subject to the header scale/offset transform
}

// packed reports whether the field occupies a sub-byte bit range.
func (d FieldDescriptor) packed() bool { return d.BitWidth != 0 }

// Layout is the ordered dimension layout of one point data record format.
// Layouts are immutable and shared; they describe only the standard fields,
// extra dimensions are resolved separately by the Accessor.
type Layout struct {
	FormatID uint8
	Size     int // base record width in bytes, before extra dimensions
	Fields   []FieldDescriptor

	byName map[string]FieldDescriptor
}

// Field returns the descriptor for a standard dimension name.
func (l Layout) Field(name string) (FieldDescriptor, bool) {
	d, ok := l.byName[name]
	return d, ok
}

// HasGPSTime reports whether the format carries an 8-byte GPS time field.
func (l Layout) HasGPSTime() bool { _, ok := l.byName["gps_time"]; return ok }

// HasRGB reports whether the format carries 16-bit RGB channels.
func (l Layout) HasRGB() bool { _, ok := l.byName["red"]; return ok }

// HasNIR reports whether the format carries a near-infrared channel.
func (l Layout) HasNIR() bool { _, ok := l.byName["nir"]; return ok }

// HasWaveform reports whether the format carries waveform packet fields.
func (l Layout) HasWaveform() bool {
	_, ok := l.byName["wave_packet_desc_index"]
	return ok
}

var layouts [formatCount]Layout

func init() {
	for id := 0; id < formatCount; id++ {
		layouts[id] = buildLayout(uint8(id))
	}
}

// FormatLayout returns the dimension layout for a point data record format.
func FormatLayout(id uint8) (Layout, error) {
	if int(id) >= formatCount {
		return Layout{}, fmt.Errorf("%w: point format %d", ErrFormat, id)
	}
	return layouts[id], nil
}

// layoutBuilder accumulates descriptors while walking a format definition.
type layoutBuilder struct {
	fields []FieldDescriptor
	next   int // next free byte offset
}

func (b *layoutBuilder) field(name string, kind Kind, scaled bool) {
	b.fields = append(b.fields, FieldDescriptor{
		Name:   name,
		Offset: b.next,
		Kind:   kind,
		Size:   kind.Size(),
		Scaled: scaled,
	})
	b.next += kind.Size()
}

// bits adds a packed field inside the byte at the current offset without
// advancing it; call skip(1) after the last bit range of the byte.
func (b *layoutBuilder) bits(name string, shift, width uint8) {
	b.fields = append(b.fields, FieldDescriptor{
		Name:     name,
		Offset:   b.next,
		Kind:     KindUint8,
		Size:     1,
		BitWidth: width,
		BitShift: shift,
	})
}

func (b *layoutBuilder) skip(n int) { b.next += n }

func buildLayout(id uint8) Layout {
	b := &layoutBuilder{}

	b.field("X", KindInt32, true)
	b.field("Y", KindInt32, true)
	b.field("Z", KindInt32, true)
	b.field("intensity", KindUint16, false)

	if id <= 5 {
		// Byte 14: returns 0-2, count 3-5, scan direction 6, edge 7.
		b.field("flag_byte", KindUint8, false)
		last := len(b.fields) - 1
		b.next = b.fields[last].Offset // rewind: packed views share the byte
		b.bits("return_num", 0, 3)
		b.bits("num_returns", 3, 3)
		b.bits("scan_dir_flag", 6, 1)
		b.bits("edge_flight_line", 7, 1)
		b.skip(1)

		// Byte 15: class 0-4, synthetic 5, key point 6, withheld 7.
		b.field("raw_classification", KindUint8, false)
		last = len(b.fields) - 1
		b.next = b.fields[last].Offset
		b.bits("classification", 0, 5)
		b.bits("synthetic", 5, 1)
		b.bits("key_point", 6, 1)
		b.bits("withheld", 7, 1)
		b.skip(1)

		b.field("scan_angle_rank", KindInt8, false)
		b.field("user_data", KindUint8, false)
		b.field("pt_src_id", KindUint16, false)

		switch id {
		case 1:
			b.field("gps_time", KindFloat64, false)
		case 2:
			addRGB(b)
		case 3:
			b.field("gps_time", KindFloat64, false)
			addRGB(b)
		case 4:
			b.field("gps_time", KindFloat64, false)
			addWaveform(b)
		case 5:
			b.field("gps_time", KindFloat64, false)
			addRGB(b)
			addWaveform(b)
		}
	} else {
		// Byte 14: returns 0-3, count 4-7.
		b.bits("return_num", 0, 4)
		b.bits("num_returns", 4, 4)
		b.skip(1)

		// Byte 15: flags 0-3, scanner channel 4-5, direction 6, edge 7.
		b.bits("classification_flags", 0, 4)
		b.bits("synthetic", 0, 1)
		b.bits("key_point", 1, 1)
		b.bits("withheld", 2, 1)
		b.bits("overlap", 3, 1)
		b.bits("scanner_channel", 4, 2)
		b.bits("scan_dir_flag", 6, 1)
		b.bits("edge_flight_line", 7, 1)
		b.skip(1)

		b.field("classification", KindUint8, false)
		b.field("user_data", KindUint8, false)
		b.field("scan_angle", KindInt16, false)
		b.field("pt_src_id", KindUint16, false)
		b.field("gps_time", KindFloat64, false)

		switch id {
		case 7:
			addRGB(b)
		case 8:
			addRGB(b)
			b.field("nir", KindUint16, false)
		case 9:
			addWaveform(b)
		case 10:
			addRGB(b)
			b.field("nir", KindUint16, false)
			addWaveform(b)
		}
	}

	if b.next != recordSizes[id] {
		// The table and the builder must agree; a mismatch is a programming
		// error, not a runtime condition.
		panic(fmt.Sprintf("las: format %d layout is %d bytes, want %d", id, b.next, recordSizes[id]))
	}

	byName := make(map[string]FieldDescriptor, len(b.fields))
	for _, f := range b.fields {
		byName[f.Name] = f
	}
	return Layout{FormatID: id, Size: b.next, Fields: b.fields, byName: byName}
}

func addRGB(b *layoutBuilder) {
	b.field("red", KindUint16, false)
	b.field("green", KindUint16, false)
	b.field("blue", KindUint16, false)
}

func addWaveform(b *layoutBuilder) {
	b.field("wave_packet_desc_index", KindUint8, false)
	b.field("byte_offset_to_waveform_data", KindUint64, false)
	b.field("waveform_packet_size", KindUint32, false)
	b.field("return_point_waveform_loc", KindFloat32, false)
	b.field("x_t", KindFloat32, false)
	b.field("y_t", KindFloat32, false)
	b.field("z_t", KindFloat32, false)
}
