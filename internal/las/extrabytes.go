package las

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Extra-bytes data type codes from the LAS 1.4 specification. Code 0 is an
// undocumented raw byte run whose length is carried in the options field;
// codes 1-10 are the scalar types. The deprecated array codes (11 and up)
// are not supported.
type ExtraKind uint8

const (
	ExtraUndocumented ExtraKind = 0
	ExtraUint8        ExtraKind = 1
	ExtraInt8         ExtraKind = 2
	ExtraUint16       ExtraKind = 3
	ExtraInt16        ExtraKind = 4
	ExtraUint32       ExtraKind = 5
	ExtraInt32        ExtraKind = 6
	ExtraUint64       ExtraKind = 7
	ExtraInt64        ExtraKind = 8
	ExtraFloat32      ExtraKind = 9
	ExtraFloat64      ExtraKind = 10

	maxExtraKind = ExtraFloat64
)

var extraKinds = [maxExtraKind + 1]Kind{
	ExtraUndocumented: KindBytes,
	ExtraUint8:        KindUint8,
	ExtraInt8:         KindInt8,
	ExtraUint16:       KindUint16,
	ExtraInt16:        KindInt16,
	ExtraUint32:       KindUint32,
	ExtraInt32:        KindInt32,
	ExtraUint64:       KindUint64,
	ExtraInt64:        KindInt64,
	ExtraFloat32:      KindFloat32,
	ExtraFloat64:      KindFloat64,
}

// Option bit flags of an extra-bytes schema entry.
const (
	extraOptNoData uint8 = 1 << iota
	extraOptMin
	extraOptMax
	extraOptScale
	extraOptOffset
)

// extraEntrySize is the fixed width of one extra-bytes schema entry inside
// the LASF_Spec record id 4 VLR payload.
const extraEntrySize = 192

// ExtraDimension describes one caller-defined field appended after the
// standard fields of every point record. The schema is persisted in the
// extra-bytes VLR; unused anytype slots (no-data, min, max) are preserved
// verbatim so foreign schemas survive a rewrite.
type ExtraDimension struct {
	Name        string
	DataType    ExtraKind
	Options     uint8
	Description string

	// Raw anytype triplets, valid when the matching Options bit is set.
	NoData [24]byte
	Min    [24]byte
	Max    [24]byte

	// Optional linear transform, valid when the scale/offset bits are set.
	Scale  [3]float64
	Offset [3]float64

	// ByteSize is the run length for ExtraUndocumented entries; ignored for
	// scalar types, which derive their width from DataType.
	ByteSize int
}

// Width returns the number of bytes the dimension occupies in each record.
func (e ExtraDimension) Width() int {
	if e.DataType == ExtraUndocumented {
		return e.ByteSize
	}
	return extraKinds[e.DataType].Size()
}

// descriptor places the dimension at the given byte offset in the record.
func (e ExtraDimension) descriptor(offset int) (FieldDescriptor, error) {
	if e.DataType > maxExtraKind {
		return FieldDescriptor{}, fmt.Errorf("%w: extra dimension %q has data type %d", ErrFormat, e.Name, e.DataType)
	}
	size := e.Width()
	if size <= 0 {
		return FieldDescriptor{}, fmt.Errorf("%w: extra dimension %q has zero width", ErrFormat, e.Name)
	}
	return FieldDescriptor{
		Name:   NormalizeDimensionName(e.Name),
		Offset: offset,
		Kind:   extraKinds[e.DataType],
		Size:   size,
		Scaled: e.Options&extraOptScale != 0,
	}, nil
}

// decodeExtraBytes parses the payload of a LASF_Spec/4 VLR into its schema
// entries. The payload must be a whole number of 192-byte entries.
func decodeExtraBytes(payload []byte) ([]ExtraDimension, error) {
	if len(payload)%extraEntrySize != 0 {
		return nil, fmt.Errorf("%w: extra bytes VLR payload is %d bytes, not a multiple of %d",
			ErrCorruptFile, len(payload), extraEntrySize)
	}
	dims := make([]ExtraDimension, 0, len(payload)/extraEntrySize)
	for off := 0; off < len(payload); off += extraEntrySize {
		entry := payload[off : off+extraEntrySize]
		e := ExtraDimension{
			DataType:    ExtraKind(entry[2]),
			Options:     entry[3],
			Name:        trimNul(entry[4:36]),
			Description: trimNul(entry[160:192]),
		}
		if e.DataType > maxExtraKind {
			return nil, fmt.Errorf("%w: extra dimension %q has data type %d", ErrCorruptFile, e.Name, e.DataType)
		}
		copy(e.NoData[:], entry[40:64])
		copy(e.Min[:], entry[64:88])
		copy(e.Max[:], entry[88:112])
		for i := 0; i < 3; i++ {
			e.Scale[i] = float64FromLE(entry[112+8*i:])
			e.Offset[i] = float64FromLE(entry[136+8*i:])
		}
		if e.DataType == ExtraUndocumented {
			e.ByteSize = int(e.Options)
		}
		dims = append(dims, e)
	}
	return dims, nil
}

// encodeExtraBytes serializes schema entries into a LASF_Spec/4 VLR payload.
func encodeExtraBytes(dims []ExtraDimension) []byte {
	payload := make([]byte, len(dims)*extraEntrySize)
	for i, e := range dims {
		entry := payload[i*extraEntrySize : (i+1)*extraEntrySize]
		entry[2] = byte(e.DataType)
		options := e.Options
		if e.DataType == ExtraUndocumented {
			options = uint8(e.ByteSize)
		}
		entry[3] = options
		copy(entry[4:36], e.Name)
		copy(entry[40:64], e.NoData[:])
		copy(entry[64:88], e.Min[:])
		copy(entry[88:112], e.Max[:])
		for j := 0; j < 3; j++ {
			putFloat64LE(entry[112+8*j:], e.Scale[j])
			putFloat64LE(entry[136+8*j:], e.Offset[j])
		}
		copy(entry[160:192], e.Description)
	}
	return payload
}

func float64FromLE(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func putFloat64LE(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

// trimNul strips trailing NUL padding from a fixed-width string field.
func trimNul(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
