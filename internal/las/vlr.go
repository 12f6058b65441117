package las

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Variable length record framing. A VLR header is 54 bytes:
// reserved(2) + user id(16) + record id(2) + payload length(2) +
// description(32). An EVLR widens the payload length to 8 bytes (60-byte
// header) and lives after the point data in LAS 1.4 files, so payloads can
// exceed 64 KiB.
const (
	vlrHeaderSize  = 54
	evlrHeaderSize = 60

	// SpecUserID is the ASPRS-reserved user id carrying spec-defined
	// records, including the extra-bytes schema.
	SpecUserID = "LASF_Spec"

	// ExtraBytesRecordID identifies the extra-bytes schema record under
	// SpecUserID.
	ExtraBytesRecordID = 4
)

// VLR is one variable length record. Payloads of records this package does
// not understand are preserved verbatim and written back byte for byte.
type VLR struct {
	Reserved    uint16
	UserID      string // at most 16 bytes, NUL padded on disk
	RecordID    uint16
	Description string // at most 32 bytes, NUL padded on disk
	Payload     []byte
}

// IsExtraBytes reports whether the record is the extra-bytes schema.
func (v VLR) IsExtraBytes() bool {
	return v.UserID == SpecUserID && v.RecordID == ExtraBytesRecordID
}

// encodedSize returns the on-disk size of the record including its header.
func (v VLR) encodedSize() int { return vlrHeaderSize + len(v.Payload) }

// encode serializes the record. Payloads over 65535 bytes cannot be framed
// as a VLR; such records must be written as EVLRs.
func (v VLR) encode() ([]byte, error) {
	if len(v.Payload) > 0xFFFF {
		return nil, fmt.Errorf("%w: VLR payload %d bytes exceeds 65535", ErrFormat, len(v.Payload))
	}
	buf := make([]byte, v.encodedSize())
	binary.LittleEndian.PutUint16(buf[0:], v.Reserved)
	copy(buf[2:18], v.UserID)
	binary.LittleEndian.PutUint16(buf[18:], v.RecordID)
	binary.LittleEndian.PutUint16(buf[20:], uint16(len(v.Payload)))
	copy(buf[22:54], v.Description)
	copy(buf[54:], v.Payload)
	return buf, nil
}

// EVLR is one extended variable length record, stored after the point data.
type EVLR struct {
	Reserved    uint16
	UserID      string
	RecordID    uint16
	Description string
	Payload     []byte
}

// IsExtraBytes reports whether the record is the extra-bytes schema.
func (v EVLR) IsExtraBytes() bool {
	return v.UserID == SpecUserID && v.RecordID == ExtraBytesRecordID
}

func (v EVLR) encode() []byte {
	buf := make([]byte, evlrHeaderSize+len(v.Payload))
	binary.LittleEndian.PutUint16(buf[0:], v.Reserved)
	copy(buf[2:18], v.UserID)
	binary.LittleEndian.PutUint16(buf[18:], v.RecordID)
	binary.LittleEndian.PutUint64(buf[20:], uint64(len(v.Payload)))
	copy(buf[28:60], v.Description)
	copy(buf[60:], v.Payload)
	return buf
}

// readVLRs reads exactly count records from r, which must be positioned at
// the byte following the fixed header. limit is the number of bytes between
// the header and the point data; a record whose declared length would cross
// that boundary makes the file corrupt.
func readVLRs(r io.Reader, count uint32, limit int64) ([]VLR, error) {
	vlrs := make([]VLR, 0, count)
	var consumed int64
	hdr := make([]byte, vlrHeaderSize)
	for i := uint32(0); i < count; i++ {
		if consumed+vlrHeaderSize > limit {
			return nil, fmt.Errorf("%w: VLR %d header crosses point data boundary", ErrCorruptFile, i)
		}
		if _, err := io.ReadFull(r, hdr); err != nil {
			return nil, fmt.Errorf("reading VLR %d header: %w", i, err)
		}
		v := VLR{
			Reserved:    binary.LittleEndian.Uint16(hdr[0:]),
			UserID:      trimNul(hdr[2:18]),
			RecordID:    binary.LittleEndian.Uint16(hdr[18:]),
			Description: trimNul(hdr[22:54]),
		}
		length := int64(binary.LittleEndian.Uint16(hdr[20:]))
		consumed += vlrHeaderSize
		if consumed+length > limit {
			return nil, fmt.Errorf("%w: VLR %d payload of %d bytes crosses point data boundary",
				ErrCorruptFile, i, length)
		}
		v.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, v.Payload); err != nil {
			return nil, fmt.Errorf("reading VLR %d payload: %w", i, err)
		}
		consumed += length
		vlrs = append(vlrs, v)
	}
	return vlrs, nil
}

// readEVLRs reads count extended records starting at offset start. size is
// the total file size; a declared payload length that would cross it makes
// the file corrupt before any allocation happens.
func readEVLRs(rs io.ReadSeeker, start uint64, count uint32, size int64) ([]EVLR, error) {
	if _, err := rs.Seek(int64(start), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to first EVLR: %w", err)
	}
	evlrs := make([]EVLR, 0, count)
	hdr := make([]byte, evlrHeaderSize)
	pos := int64(start)
	for i := uint32(0); i < count; i++ {
		if pos < 0 || pos+evlrHeaderSize > size {
			return nil, fmt.Errorf("%w: EVLR %d header crosses end of file", ErrCorruptFile, i)
		}
		if _, err := io.ReadFull(rs, hdr); err != nil {
			return nil, fmt.Errorf("%w: reading EVLR %d header: %v", ErrCorruptFile, i, err)
		}
		v := EVLR{
			Reserved:    binary.LittleEndian.Uint16(hdr[0:]),
			UserID:      trimNul(hdr[2:18]),
			RecordID:    binary.LittleEndian.Uint16(hdr[18:]),
			Description: trimNul(hdr[28:60]),
		}
		length := binary.LittleEndian.Uint64(hdr[20:])
		pos += evlrHeaderSize
		if length > uint64(size-pos) {
			return nil, fmt.Errorf("%w: EVLR %d declares %d payload bytes with %d remaining in file",
				ErrCorruptFile, i, length, size-pos)
		}
		v.Payload = make([]byte, length)
		if _, err := io.ReadFull(rs, v.Payload); err != nil {
			return nil, fmt.Errorf("%w: reading EVLR %d payload: %v", ErrCorruptFile, i, err)
		}
		pos += int64(length)
		evlrs = append(evlrs, v)
	}
	return evlrs, nil
}

// extraBytesVLR wraps a schema entry list in its distinguished VLR frame.
func extraBytesVLR(dims []ExtraDimension) VLR {
	return VLR{
		UserID:      SpecUserID,
		RecordID:    ExtraBytesRecordID,
		Description: "Extra Bytes Record",
		Payload:     encodeExtraBytes(dims),
	}
}

// findExtraDimensions locates and decodes the extra-bytes schema from the
// VLR list first, falling back to the EVLR list. A missing schema yields an
// empty set, not an error.
func findExtraDimensions(vlrs []VLR, evlrs []EVLR) ([]ExtraDimension, error) {
	for _, v := range vlrs {
		if v.IsExtraBytes() {
			return decodeExtraBytes(v.Payload)
		}
	}
	for _, v := range evlrs {
		if v.IsExtraBytes() {
			return decodeExtraBytes(v.Payload)
		}
	}
	return nil, nil
}

// replaceExtraBytesVLR replaces any prior schema record in place, appending
// if none exists. The relative order of all other records is preserved.
func replaceExtraBytesVLR(vlrs []VLR, dims []ExtraDimension) []VLR {
	record := extraBytesVLR(dims)
	for i, v := range vlrs {
		if v.IsExtraBytes() {
			vlrs[i] = record
			return vlrs
		}
	}
	return append(vlrs, record)
}
