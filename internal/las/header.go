package las

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Fixed header geometry per LAS version. Versions 1.0 through 1.2 share the
// 227-byte layout; 1.3 appends the waveform start offset; 1.4 appends the
// EVLR directory and the 64-bit point counts.
const (
	fileSignature = "LASF"

	headerSize12 = 227 // versions 1.0, 1.1, 1.2
	headerSize13 = 235 // version 1.3
	headerSize14 = 375 // version 1.4
)

// Header is the fixed-width LAS file header. Scale, Offset, Min and Max are
// indexed X, Y, Z. For versions before 1.4 PointCount mirrors the legacy
// 32-bit count; for 1.4 files with point formats 6-10 the legacy fields are
// written as zero per the specification.
type Header struct {
	FileSourceID       uint16
	GlobalEncoding     uint16
	ProjectID          uuid.UUID
	VersionMajor       uint8
	VersionMinor       uint8
	SystemIdentifier   string // at most 32 bytes
	GeneratingSoftware string // at most 32 bytes
	FileCreationDay    uint16
	FileCreationYear   uint16
	OffsetToPointData  uint32
	VLRCount           uint32
	PointFormatID      uint8
	PointRecordLength  uint16

	LegacyPointCount    uint32
	LegacyPointsByReturn [5]uint32

	Scale  [3]float64
	Offset [3]float64
	Max    [3]float64
	Min    [3]float64

	// Version 1.3 and later.
	StartOfWaveformData uint64

	// Version 1.4 only.
	StartOfFirstEVLR uint64
	EVLRCount        uint32
	PointCount       uint64
	PointsByReturn   [15]uint64
}

// HeaderSize returns the fixed header width for the header's version.
func (h *Header) HeaderSize() int {
	switch {
	case h.VersionMinor >= 4:
		return headerSize14
	case h.VersionMinor == 3:
		return headerSize13
	default:
		return headerSize12
	}
}

// NumPoints returns the effective point record count: the 64-bit count for
// 1.4 files, the legacy count otherwise.
func (h *Header) NumPoints() uint64 {
	if h.VersionMinor >= 4 {
		return h.PointCount
	}
	return uint64(h.LegacyPointCount)
}

// ScaleOffsetFor returns the coordinate transform for axis 0 (X), 1 (Y) or
// 2 (Z).
func (h *Header) ScaleOffsetFor(axis int) ScaleOffset {
	return ScaleOffset{Scale: h.Scale[axis], Offset: h.Offset[axis]}
}

// supportsEVLRs reports whether the version carries an EVLR directory.
func (h *Header) supportsEVLRs() bool { return h.VersionMinor >= 4 }

// validate checks the version against the point format's requirements.
// Formats 4 and 5 need the 1.3 waveform header; formats 6-10 exist only in
// 1.4 files.
func (h *Header) validate() error {
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return fmt.Errorf("%w: version %d.%d", ErrFormat, h.VersionMajor, h.VersionMinor)
	}
	if int(h.PointFormatID) >= formatCount {
		return fmt.Errorf("%w: point format %d", ErrFormat, h.PointFormatID)
	}
	switch {
	case h.PointFormatID >= 6 && h.VersionMinor < 4:
		return fmt.Errorf("%w: point format %d requires version 1.4, file is 1.%d",
			ErrFormat, h.PointFormatID, h.VersionMinor)
	case h.PointFormatID >= 4 && h.VersionMinor < 3:
		return fmt.Errorf("%w: point format %d requires version 1.3, file is 1.%d",
			ErrFormat, h.PointFormatID, h.VersionMinor)
	}
	return nil
}

// parseHeader reads and validates a fixed header from the start of r. The
// second return is the declared on-disk header size, which may exceed
// HeaderSize() for files with padded headers; VLR parsing starts there.
func parseHeader(r io.Reader) (*Header, int, error) {
	base := make([]byte, headerSize12)
	if _, err := io.ReadFull(r, base); err != nil {
		return nil, 0, fmt.Errorf("%w: reading fixed header: %v", ErrCorruptFile, err)
	}
	if string(base[0:4]) != fileSignature {
		return nil, 0, fmt.Errorf("%w: bad file signature %q", ErrFormat, base[0:4])
	}

	h := &Header{
		FileSourceID:       binary.LittleEndian.Uint16(base[4:]),
		GlobalEncoding:     binary.LittleEndian.Uint16(base[6:]),
		VersionMajor:       base[24],
		VersionMinor:       base[25],
		SystemIdentifier:   trimNul(base[26:58]),
		GeneratingSoftware: trimNul(base[58:90]),
		FileCreationDay:    binary.LittleEndian.Uint16(base[90:]),
		FileCreationYear:   binary.LittleEndian.Uint16(base[92:]),
		OffsetToPointData:  binary.LittleEndian.Uint32(base[96:]),
		VLRCount:           binary.LittleEndian.Uint32(base[100:]),
		PointFormatID:      base[104],
		PointRecordLength:  binary.LittleEndian.Uint16(base[105:]),
		LegacyPointCount:   binary.LittleEndian.Uint32(base[107:]),
	}
	copy(h.ProjectID[:], base[8:24])
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return nil, 0, fmt.Errorf("%w: version %d.%d", ErrFormat, h.VersionMajor, h.VersionMinor)
	}
	for i := 0; i < 5; i++ {
		h.LegacyPointsByReturn[i] = binary.LittleEndian.Uint32(base[111+4*i:])
	}
	for i := 0; i < 3; i++ {
		h.Scale[i] = float64FromLE(base[131+8*i:])
		h.Offset[i] = float64FromLE(base[155+8*i:])
	}
	// Bounding box is stored max-before-min per axis, X then Y then Z.
	h.Max[0] = float64FromLE(base[179:])
	h.Min[0] = float64FromLE(base[187:])
	h.Max[1] = float64FromLE(base[195:])
	h.Min[1] = float64FromLE(base[203:])
	h.Max[2] = float64FromLE(base[211:])
	h.Min[2] = float64FromLE(base[219:])

	declared := int(binary.LittleEndian.Uint16(base[94:]))
	if declared < h.HeaderSize() {
		return nil, 0, fmt.Errorf("%w: header size %d below %d required by version 1.%d",
			ErrCorruptFile, declared, h.HeaderSize(), h.VersionMinor)
	}

	if h.VersionMinor >= 3 {
		ext := make([]byte, declared-headerSize12)
		if _, err := io.ReadFull(r, ext); err != nil {
			return nil, 0, fmt.Errorf("%w: reading extended header: %v", ErrCorruptFile, err)
		}
		h.StartOfWaveformData = binary.LittleEndian.Uint64(ext[0:])
		if h.VersionMinor >= 4 {
			h.StartOfFirstEVLR = binary.LittleEndian.Uint64(ext[8:])
			h.EVLRCount = binary.LittleEndian.Uint32(ext[16:])
			h.PointCount = binary.LittleEndian.Uint64(ext[20:])
			for i := 0; i < 15; i++ {
				h.PointsByReturn[i] = binary.LittleEndian.Uint64(ext[28+8*i:])
			}
		}
	} else if declared > headerSize12 {
		// Tolerate oversized pre-1.3 headers; skip the surplus bytes.
		if _, err := io.CopyN(io.Discard, r, int64(declared-headerSize12)); err != nil {
			return nil, 0, fmt.Errorf("%w: skipping header padding: %v", ErrCorruptFile, err)
		}
	}

	if h.PointCount == 0 {
		h.PointCount = uint64(h.LegacyPointCount)
	}
	if h.OffsetToPointData < uint32(declared) {
		return nil, 0, fmt.Errorf("%w: point data offset %d inside %d-byte header",
			ErrCorruptFile, h.OffsetToPointData, declared)
	}
	if err := h.validate(); err != nil {
		return nil, 0, err
	}
	return h, declared, nil
}

// encode serializes the fixed header for the header's version.
func (h *Header) encode() []byte {
	buf := make([]byte, h.HeaderSize())
	copy(buf[0:4], fileSignature)
	binary.LittleEndian.PutUint16(buf[4:], h.FileSourceID)
	binary.LittleEndian.PutUint16(buf[6:], h.GlobalEncoding)
	copy(buf[8:24], h.ProjectID[:])
	buf[24] = h.VersionMajor
	buf[25] = h.VersionMinor
	copy(buf[26:58], h.SystemIdentifier)
	copy(buf[58:90], h.GeneratingSoftware)
	binary.LittleEndian.PutUint16(buf[90:], h.FileCreationDay)
	binary.LittleEndian.PutUint16(buf[92:], h.FileCreationYear)
	binary.LittleEndian.PutUint16(buf[94:], uint16(h.HeaderSize()))
	binary.LittleEndian.PutUint32(buf[96:], h.OffsetToPointData)
	binary.LittleEndian.PutUint32(buf[100:], h.VLRCount)
	buf[104] = h.PointFormatID
	binary.LittleEndian.PutUint16(buf[105:], h.PointRecordLength)
	binary.LittleEndian.PutUint32(buf[107:], h.LegacyPointCount)
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint32(buf[111+4*i:], h.LegacyPointsByReturn[i])
	}
	for i := 0; i < 3; i++ {
		putFloat64LE(buf[131+8*i:], h.Scale[i])
		putFloat64LE(buf[155+8*i:], h.Offset[i])
	}
	putFloat64LE(buf[179:], h.Max[0])
	putFloat64LE(buf[187:], h.Min[0])
	putFloat64LE(buf[195:], h.Max[1])
	putFloat64LE(buf[203:], h.Min[1])
	putFloat64LE(buf[211:], h.Max[2])
	putFloat64LE(buf[219:], h.Min[2])

	if h.VersionMinor >= 3 {
		binary.LittleEndian.PutUint64(buf[227:], h.StartOfWaveformData)
	}
	if h.VersionMinor >= 4 {
		binary.LittleEndian.PutUint64(buf[235:], h.StartOfFirstEVLR)
		binary.LittleEndian.PutUint32(buf[243:], h.EVLRCount)
		binary.LittleEndian.PutUint64(buf[247:], h.PointCount)
		for i := 0; i < 15; i++ {
			binary.LittleEndian.PutUint64(buf[255+8*i:], h.PointsByReturn[i])
		}
	}
	return buf
}

// syncCounts mirrors the 64-bit counts into the legacy 32-bit fields where
// the specification allows it: formats 6-10 and counts past 2^32-1 leave
// the legacy fields zero.
func (h *Header) syncCounts() {
	if h.VersionMinor < 4 {
		h.LegacyPointCount = uint32(h.PointCount)
		for i := 0; i < 5; i++ {
			h.LegacyPointsByReturn[i] = uint32(h.PointsByReturn[i])
		}
		return
	}
	if h.PointFormatID >= 6 || h.PointCount > 0xFFFFFFFF {
		h.LegacyPointCount = 0
		h.LegacyPointsByReturn = [5]uint32{}
		return
	}
	h.LegacyPointCount = uint32(h.PointCount)
	for i := 0; i < 5; i++ {
		h.LegacyPointsByReturn[i] = uint32(h.PointsByReturn[i])
	}
}
