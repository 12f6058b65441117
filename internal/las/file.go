package las

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Mode is the open mode of a File. The set is closed: reading, sequential
// writing of a new file, and in-place updating of an existing file.
type Mode int

const (
	// ModeRead opens an existing file for random and sequential reads.
	ModeRead Mode = iota
	// ModeWrite creates a new file; point records are appended
	// sequentially and the header is finalized at close.
	ModeWrite
	// ModeAppend reopens an existing file for in-place field mutation.
	// The record count and record length never change in this mode.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Writable reports whether the mode permits any mutation.
func (m Mode) Writable() bool { return m == ModeWrite || m == ModeAppend }

// MutableInPlace reports whether the mode permits rewriting existing
// records.
func (m Mode) MutableInPlace() bool { return m == ModeAppend }

// batchRecords is the number of point records moved per I/O call by the
// batch dimension scans.
const batchRecords = 4096

// File is one open LAS container. A File owns its underlying *os.File
// exclusively; it performs no internal locking, so concurrent use of one
// File from multiple goroutines requires external serialization.
type File struct {
	path string
	mode Mode
	f    *os.File

	header   *Header
	vlrs     []VLR
	evlrs    []EVLR
	extras   []ExtraDimension
	accessor *Accessor

	cursor  uint64 // next record index for NextPoint
	written uint64 // records appended in this write session

	headerFlushed bool // write mode: header and VLRs are on disk
	headerDirty   bool // append mode: header replacement pending
	closed        bool

	trackMin [3]float64
	trackMax [3]float64
	byReturn [15]uint64
}

// Open opens an existing LAS file for reading. The header, VLRs, EVLRs and
// extra-dimension schema are parsed eagerly; on any parse failure the
// underlying file is closed and the returned error wraps the cause.
func Open(path string) (*File, error) {
	return openExisting(path, ModeRead)
}

// OpenAppend reopens an existing LAS file for in-place field mutation.
// Appending new records is not supported: the record count and record
// length are fixed for the session. The header is rewritten at close only
// if SetHeader was called.
func OpenAppend(path string) (*File, error) {
	return openExisting(path, ModeAppend)
}

func openExisting(path string, mode Mode) (*File, error) {
	flags := os.O_RDONLY
	if mode.MutableInPlace() {
		flags = os.O_RDWR
	}
	osf, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, err
	}

	f, err := loadFile(osf, path, mode)
	if err != nil {
		osf.Close()
		return nil, err
	}
	Logf("las: opened %s (%s, format %d, %d points, %d VLRs)",
		path, mode, f.header.PointFormatID, f.header.NumPoints(), len(f.vlrs))
	return f, nil
}

func loadFile(osf *os.File, path string, mode Mode) (*File, error) {
	info, err := osf.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	header, declaredSize, err := parseHeader(osf)
	if err != nil {
		return nil, err
	}

	// VLRs start after the declared header size, which may exceed the fixed
	// layout for padded headers.
	limit := int64(header.OffsetToPointData) - int64(declaredSize)
	vlrs, err := readVLRs(osf, header.VLRCount, limit)
	if err != nil {
		return nil, err
	}

	var evlrs []EVLR
	if header.supportsEVLRs() && header.EVLRCount > 0 {
		evlrs, err = readEVLRs(osf, header.StartOfFirstEVLR, header.EVLRCount, info.Size())
		if err != nil {
			return nil, err
		}
	}

	extras, err := findExtraDimensions(vlrs, evlrs)
	if err != nil {
		return nil, err
	}
	accessor, err := NewAccessor(header.PointFormatID, int(header.PointRecordLength), extras)
	if err != nil {
		return nil, err
	}

	// The declared point block must fit inside the file.
	end := int64(header.OffsetToPointData) + int64(header.NumPoints())*int64(header.PointRecordLength)
	if end > info.Size() {
		return nil, fmt.Errorf("%w: %d point records of %d bytes at offset %d exceed file size %d",
			ErrCorruptFile, header.NumPoints(), header.PointRecordLength,
			header.OffsetToPointData, info.Size())
	}

	return &File{
		path:     path,
		mode:     mode,
		f:        osf,
		header:   header,
		vlrs:     vlrs,
		evlrs:    evlrs,
		extras:   extras,
		accessor: accessor,
	}, nil
}

// Create opens a new LAS file for sequential writing. The supplied header
// fixes the point format, version, scale and offset; counts, bounds and the
// point data offset are managed by the engine. The header and VLRs hit disk
// when the first point is written (or at close for an empty file), and the
// header is rewritten with final counts and bounds at close.
func Create(path string, header *Header) (*File, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: nil header", ErrFormat)
	}
	h := *header // private copy; the engine owns count and bound fields

	if h.VersionMajor == 0 {
		h.VersionMajor = 1
		switch {
		case h.PointFormatID >= 6:
			h.VersionMinor = 4
		case h.PointFormatID >= 4:
			h.VersionMinor = 3
		default:
			h.VersionMinor = 2
		}
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	for i := 0; i < 3; i++ {
		if h.Scale[i] == 0 {
			return nil, fmt.Errorf("%w: zero scale factor on axis %d", ErrFormat, i)
		}
	}

	layout, err := FormatLayout(h.PointFormatID)
	if err != nil {
		return nil, err
	}
	if h.PointRecordLength == 0 {
		h.PointRecordLength = uint16(layout.Size)
	} else if int(h.PointRecordLength) < layout.Size {
		return nil, fmt.Errorf("%w: record length %d below format %d base width %d",
			ErrFormat, h.PointRecordLength, h.PointFormatID, layout.Size)
	}
	h.PointCount = 0
	h.LegacyPointCount = 0
	h.PointsByReturn = [15]uint64{}
	h.LegacyPointsByReturn = [5]uint32{}
	h.EVLRCount = 0
	h.StartOfFirstEVLR = 0

	accessor, err := NewAccessor(h.PointFormatID, int(h.PointRecordLength), nil)
	if err != nil {
		return nil, err
	}

	osf, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	f := &File{
		path:     path,
		mode:     ModeWrite,
		f:        osf,
		header:   &h,
		accessor: accessor,
		trackMin: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		trackMax: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	Logf("las: created %s (format %d, version 1.%d, record length %d)",
		path, h.PointFormatID, h.VersionMinor, h.PointRecordLength)
	return f, nil
}

// Header returns the file header. In read mode it is a parsed snapshot;
// mutating it has no effect on the file.
func (f *File) Header() *Header { return f.header }

// Mode returns the open mode.
func (f *File) Mode() Mode { return f.mode }

// Path returns the file path the File was opened with.
func (f *File) Path() string { return f.path }

// VLRs returns the variable length records in file order.
func (f *File) VLRs() []VLR { return f.vlrs }

// EVLRs returns the extended variable length records in file order.
func (f *File) EVLRs() []EVLR { return f.evlrs }

// ExtraDimensions returns the registered extra-dimension schema.
func (f *File) ExtraDimensions() []ExtraDimension { return f.extras }

// PointCount returns the number of point records: the running count of
// appended records in write mode, the header count otherwise.
func (f *File) PointCount() uint64 {
	if f.mode == ModeWrite {
		return f.written
	}
	return f.header.NumPoints()
}

// RecordLength returns the on-disk width of one point record in bytes.
func (f *File) RecordLength() int { return int(f.header.PointRecordLength) }

// Resolve maps a dimension name to its field descriptor.
func (f *File) Resolve(name string) (FieldDescriptor, error) {
	return f.accessor.Resolve(name)
}

// DimensionNames lists every resolvable dimension in layout order.
func (f *File) DimensionNames() []string { return f.accessor.Names() }

// NewRecord returns a zeroed record buffer of the file's record length,
// ready for WriteField* calls and WritePoint.
func (f *File) NewRecord() []byte { return make([]byte, f.RecordLength()) }

func (f *File) checkOpen() error {
	if f.closed {
		return fmt.Errorf("%w: file is closed", ErrMode)
	}
	return nil
}

// AppendVLR adds a variable length record. Permitted only in write mode
// before the first point record is written, because the point data offset
// is fixed at that moment.
func (f *File) AppendVLR(v VLR) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.mode != ModeWrite {
		return fmt.Errorf("%w: AppendVLR requires write mode, file is open for %s", ErrMode, f.mode)
	}
	if f.headerFlushed {
		return fmt.Errorf("%w: VLRs are frozen once the first point record is written", ErrMode)
	}
	if _, err := v.encode(); err != nil {
		return err
	}
	f.vlrs = append(f.vlrs, v)
	return nil
}

// AppendEVLR adds an extended variable length record, written after the
// point data at close. Requires a 1.4 write session.
func (f *File) AppendEVLR(v EVLR) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.mode != ModeWrite {
		return fmt.Errorf("%w: AppendEVLR requires write mode, file is open for %s", ErrMode, f.mode)
	}
	if !f.header.supportsEVLRs() {
		return fmt.Errorf("%w: EVLRs require version 1.4, file is 1.%d", ErrFormat, f.header.VersionMinor)
	}
	f.evlrs = append(f.evlrs, v)
	return nil
}

// DefineExtraDimension registers a caller-defined scalar dimension appended
// after the standard fields of every point record. Permitted only in write
// mode before the first point record is written; afterwards the record
// length and the schema are frozen for the session.
func (f *File) DefineExtraDimension(name string, kind ExtraKind, description string) error {
	if kind == ExtraUndocumented || kind > maxExtraKind {
		return fmt.Errorf("%w: extra dimension data type %d", ErrFormat, kind)
	}
	return f.defineExtra(ExtraDimension{Name: name, DataType: kind, Description: description})
}

// DefineExtraDimensionRaw registers an undocumented fixed-size byte run of
// size bytes under the same lifecycle rules as DefineExtraDimension.
func (f *File) DefineExtraDimensionRaw(name string, size int, description string) error {
	if size <= 0 || size > 255 {
		return fmt.Errorf("%w: raw extra dimension size %d", ErrFormat, size)
	}
	return f.defineExtra(ExtraDimension{
		Name:        name,
		DataType:    ExtraUndocumented,
		Description: description,
		ByteSize:    size,
	})
}

func (f *File) defineExtra(dim ExtraDimension) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.mode != ModeWrite {
		return fmt.Errorf("%w: DefineExtraDimension requires write mode, file is open for %s", ErrMode, f.mode)
	}
	if f.headerFlushed {
		return fmt.Errorf("%w: extra dimensions are frozen once the first point record is written", ErrMode)
	}

	extras := append(append([]ExtraDimension(nil), f.extras...), dim)
	length := int(f.header.PointRecordLength) + dim.Width()
	if length > 0xFFFF {
		return fmt.Errorf("%w: record length %d exceeds 65535", ErrValueOutOfRange, length)
	}
	accessor, err := NewAccessor(f.header.PointFormatID, length, extras)
	if err != nil {
		return err
	}

	f.extras = extras
	f.accessor = accessor
	f.header.PointRecordLength = uint16(length)
	f.vlrs = replaceExtraBytesVLR(f.vlrs, f.extras)
	return nil
}

// SetScaleOffset replaces the coordinate transform. Write mode only, and
// only before the first point record is written.
func (f *File) SetScaleOffset(scale, offset [3]float64) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.mode != ModeWrite || f.headerFlushed {
		return fmt.Errorf("%w: scale and offset are frozen once the first point record is written", ErrMode)
	}
	for i := 0; i < 3; i++ {
		if scale[i] == 0 {
			return fmt.Errorf("%w: zero scale factor on axis %d", ErrValueOutOfRange, i)
		}
	}
	f.header.Scale = scale
	f.header.Offset = offset
	return nil
}

// SetHeader replaces the header in append mode and schedules a header
// rewrite at close. The replacement must not move or resize the point
// records: version, format id, record length and point data offset are
// pinned.
func (f *File) SetHeader(h *Header) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.mode.MutableInPlace() {
		return fmt.Errorf("%w: SetHeader requires append mode, file is open for %s", ErrMode, f.mode)
	}
	cur := f.header
	if h.VersionMajor != cur.VersionMajor || h.VersionMinor != cur.VersionMinor ||
		h.PointFormatID != cur.PointFormatID || h.PointRecordLength != cur.PointRecordLength ||
		h.OffsetToPointData != cur.OffsetToPointData {
		return fmt.Errorf("%w: header replacement changes file geometry", ErrFormat)
	}
	replacement := *h
	f.header = &replacement
	f.headerDirty = true
	return nil
}

// flushHeader writes the header and VLR block and fixes the point data
// offset. From this moment the record length and schema are immutable.
func (f *File) flushHeader() error {
	offset := f.header.HeaderSize()
	encoded := make([][]byte, len(f.vlrs))
	for i, v := range f.vlrs {
		buf, err := v.encode()
		if err != nil {
			return err
		}
		encoded[i] = buf
		offset += len(buf)
	}
	f.header.VLRCount = uint32(len(f.vlrs))
	f.header.OffsetToPointData = uint32(offset)

	if _, err := f.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to header: %w", err)
	}
	if _, err := f.f.Write(f.header.encode()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, buf := range encoded {
		if _, err := f.f.Write(buf); err != nil {
			return fmt.Errorf("writing VLR %d: %w", i, err)
		}
	}
	f.headerFlushed = true
	return nil
}

// WritePoint appends one point record. Only sequential appends are
// supported in write mode; the first append freezes the header layout.
func (f *File) WritePoint(rec []byte) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.mode != ModeWrite {
		return fmt.Errorf("%w: WritePoint requires write mode, file is open for %s", ErrMode, f.mode)
	}
	if len(rec) != f.RecordLength() {
		return fmt.Errorf("%w: record is %d bytes, want %d", ErrValueOutOfRange, len(rec), f.RecordLength())
	}
	if !f.headerFlushed {
		if err := f.flushHeader(); err != nil {
			return err
		}
	}

	offset := int64(f.header.OffsetToPointData) + int64(f.written)*int64(f.RecordLength())
	if _, err := f.f.WriteAt(rec, offset); err != nil {
		return fmt.Errorf("writing point %d: %w", f.written, err)
	}
	f.trackPoint(rec)
	f.written++
	return nil
}

// trackPoint folds one record into the running bounds and return counts.
func (f *File) trackPoint(rec []byte) {
	for axis, name := range [3]string{"X", "Y", "Z"} {
		d, _ := f.accessor.Resolve(name)
		v := f.header.ScaleOffsetFor(axis).Forward(ReadFieldInt(rec, d))
		if v < f.trackMin[axis] {
			f.trackMin[axis] = v
		}
		if v > f.trackMax[axis] {
			f.trackMax[axis] = v
		}
	}
	if d, err := f.accessor.Resolve("return_num"); err == nil {
		if ret := ReadFieldUint(rec, d); ret >= 1 && ret <= 15 {
			f.byReturn[ret-1]++
		}
	}
}

// PointAt returns the raw bytes of the record at index. Supported in read
// and append modes; the returned slice is a fresh copy.
func (f *File) PointAt(index uint64) ([]byte, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if f.mode == ModeWrite {
		return nil, fmt.Errorf("%w: random reads are not supported in write mode", ErrMode)
	}
	if index >= f.PointCount() {
		return nil, fmt.Errorf("%w: index %d, count %d", ErrIndex, index, f.PointCount())
	}
	rec := make([]byte, f.RecordLength())
	offset := int64(f.header.OffsetToPointData) + int64(index)*int64(f.RecordLength())
	if _, err := f.f.ReadAt(rec, offset); err != nil {
		return nil, fmt.Errorf("reading point %d: %w", index, err)
	}
	return rec, nil
}

// NextPoint returns the record at the internal cursor and advances it.
// Exhaustion returns io.EOF; it is a termination signal, not a failure, and
// it does not release the underlying file. Resetting is explicit via
// ResetCursor.
func (f *File) NextPoint() ([]byte, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if f.cursor >= f.PointCount() {
		return nil, io.EOF
	}
	rec, err := f.PointAt(f.cursor)
	if err != nil {
		return nil, err
	}
	f.cursor++
	return rec, nil
}

// ResetCursor rewinds the sequential cursor to the first record.
func (f *File) ResetCursor() { f.cursor = 0 }

// UpdatePoint overwrites the record at index in place. Append mode only;
// the record count never changes.
func (f *File) UpdatePoint(index uint64, rec []byte) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.mode.MutableInPlace() {
		return fmt.Errorf("%w: UpdatePoint requires append mode, file is open for %s", ErrMode, f.mode)
	}
	if index >= f.PointCount() {
		return fmt.Errorf("%w: index %d, count %d", ErrIndex, index, f.PointCount())
	}
	if len(rec) != f.RecordLength() {
		return fmt.Errorf("%w: record is %d bytes, want %d", ErrValueOutOfRange, len(rec), f.RecordLength())
	}
	offset := int64(f.header.OffsetToPointData) + int64(index)*int64(f.RecordLength())
	if _, err := f.f.WriteAt(rec, offset); err != nil {
		return fmt.Errorf("updating point %d: %w", index, err)
	}
	return nil
}

// GetDimension reads one dimension across every record in a single linear
// scan and returns the values as float64. The lower-case names x, y and z
// apply the header scale/offset transform; X, Y and Z return the raw stored
// integers. Supported in read and append modes.
func (f *File) GetDimension(name string) ([]float64, error) {
	d, transform, err := f.resolveScaled(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, f.PointCount())
	err = f.scan(func(rec []byte) error {
		v := ReadFieldFloat(rec, d)
		if transform != nil {
			v = transform.Forward(ReadFieldInt(rec, d))
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDimensionUint reads one unsigned integer dimension across every record
// without float conversion, for exact access to wide fields.
func (f *File) GetDimensionUint(name string) ([]uint64, error) {
	d, _, err := f.resolveScaled(name)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, f.PointCount())
	err = f.scan(func(rec []byte) error {
		out = append(out, ReadFieldUint(rec, d))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetDimension writes one dimension across every record in a single linear
// scan. Append mode only. values must hold exactly one value per record.
// The lower-case names x, y and z encode through the scale/offset
// transform.
func (f *File) SetDimension(name string, values []float64) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.mode.MutableInPlace() {
		return fmt.Errorf("%w: SetDimension requires append mode, file is open for %s", ErrMode, f.mode)
	}
	d, transform, err := f.resolveScaled(name)
	if err != nil {
		return err
	}
	if uint64(len(values)) != f.PointCount() {
		return fmt.Errorf("%w: %d values for %d records", ErrIndex, len(values), f.PointCount())
	}
	i := 0
	return f.mutate(func(rec []byte) error {
		v := values[i]
		i++
		if transform != nil {
			return WriteFieldInt(rec, d, transform.Back(v))
		}
		return WriteFieldFloat(rec, d, v)
	})
}

// SetDimensionUint is SetDimension for exact unsigned integer values.
func (f *File) SetDimensionUint(name string, values []uint64) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.mode.MutableInPlace() {
		return fmt.Errorf("%w: SetDimension requires append mode, file is open for %s", ErrMode, f.mode)
	}
	d, _, err := f.resolveScaled(name)
	if err != nil {
		return err
	}
	if uint64(len(values)) != f.PointCount() {
		return fmt.Errorf("%w: %d values for %d records", ErrIndex, len(values), f.PointCount())
	}
	i := 0
	return f.mutate(func(rec []byte) error {
		v := values[i]
		i++
		return WriteFieldUint(rec, d, v)
	})
}

// resolveScaled resolves a dimension name, mapping the scaled coordinate
// aliases x, y, z onto their raw fields plus the header transform.
func (f *File) resolveScaled(name string) (FieldDescriptor, *ScaleOffset, error) {
	axis := -1
	switch name {
	case "x":
		axis = 0
	case "y":
		axis = 1
	case "z":
		axis = 2
	}
	if axis >= 0 {
		d, err := f.accessor.Resolve([3]string{"X", "Y", "Z"}[axis])
		if err != nil {
			return FieldDescriptor{}, nil, err
		}
		t := f.header.ScaleOffsetFor(axis)
		return d, &t, nil
	}
	d, err := f.accessor.Resolve(name)
	if err != nil {
		return FieldDescriptor{}, nil, err
	}
	if d.Kind == KindBytes {
		return FieldDescriptor{}, nil, fmt.Errorf("%w: dimension %q is a raw byte run", ErrFormat, name)
	}
	return d, nil, nil
}

// scan runs fn over every record in file order, reading batchRecords
// records per I/O call.
func (f *File) scan(fn func(rec []byte) error) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.mode == ModeWrite {
		return fmt.Errorf("%w: bulk reads are not supported in write mode", ErrMode)
	}
	recLen := f.RecordLength()
	count := f.PointCount()
	buf := make([]byte, recLen*batchRecords)
	for start := uint64(0); start < count; start += batchRecords {
		n := uint64(batchRecords)
		if start+n > count {
			n = count - start
		}
		chunk := buf[:n*uint64(recLen)]
		offset := int64(f.header.OffsetToPointData) + int64(start)*int64(recLen)
		if _, err := f.f.ReadAt(chunk, offset); err != nil {
			return fmt.Errorf("reading points %d..%d: %w", start, start+n-1, err)
		}
		for i := uint64(0); i < n; i++ {
			if err := fn(chunk[i*uint64(recLen) : (i+1)*uint64(recLen)]); err != nil {
				return err
			}
		}
	}
	return nil
}

// mutate runs fn over every record and writes each batch back in place.
// Any per-record failure aborts before its batch is written, leaving the
// file as it was at the previous batch boundary.
func (f *File) mutate(fn func(rec []byte) error) error {
	recLen := f.RecordLength()
	count := f.PointCount()
	buf := make([]byte, recLen*batchRecords)
	for start := uint64(0); start < count; start += batchRecords {
		n := uint64(batchRecords)
		if start+n > count {
			n = count - start
		}
		chunk := buf[:n*uint64(recLen)]
		offset := int64(f.header.OffsetToPointData) + int64(start)*int64(recLen)
		if _, err := f.f.ReadAt(chunk, offset); err != nil {
			return fmt.Errorf("reading points %d..%d: %w", start, start+n-1, err)
		}
		for i := uint64(0); i < n; i++ {
			if err := fn(chunk[i*uint64(recLen) : (i+1)*uint64(recLen)]); err != nil {
				return err
			}
		}
		if _, err := f.f.WriteAt(chunk, offset); err != nil {
			return fmt.Errorf("writing points %d..%d: %w", start, start+n-1, err)
		}
	}
	return nil
}

// finalizeWrite backpatches the header with the final count, per-return
// counts and bounding box, and writes any pending EVLRs after the point
// data.
func (f *File) finalizeWrite() error {
	if !f.headerFlushed {
		// Empty file: the header and VLR block were never forced out by a
		// point write.
		if err := f.flushHeader(); err != nil {
			return err
		}
	}

	h := f.header
	h.PointCount = f.written
	h.PointsByReturn = f.byReturn
	if f.written == 0 {
		h.Min = [3]float64{}
		h.Max = [3]float64{}
	} else {
		h.Min = f.trackMin
		h.Max = f.trackMax
	}
	h.syncCounts()

	if len(f.evlrs) > 0 {
		end := int64(h.OffsetToPointData) + int64(f.written)*int64(f.RecordLength())
		if _, err := f.f.Seek(end, io.SeekStart); err != nil {
			return fmt.Errorf("seeking to EVLR block: %w", err)
		}
		for i, v := range f.evlrs {
			if _, err := f.f.Write(v.encode()); err != nil {
				return fmt.Errorf("writing EVLR %d: %w", i, err)
			}
		}
		h.StartOfFirstEVLR = uint64(end)
		h.EVLRCount = uint32(len(f.evlrs))
	}

	if _, err := f.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to header: %w", err)
	}
	if _, err := f.f.Write(h.encode()); err != nil {
		return fmt.Errorf("finalizing header: %w", err)
	}
	Logf("las: finalized %s (%d points)", f.path, f.written)
	return nil
}

// Close finalizes pending header changes and releases the underlying file.
// Calling Close again is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var finalizeErr error
	switch {
	case f.mode == ModeWrite:
		finalizeErr = f.finalizeWrite()
	case f.headerDirty:
		if _, err := f.f.Seek(0, io.SeekStart); err != nil {
			finalizeErr = fmt.Errorf("seeking to header: %w", err)
		} else if _, err := f.f.Write(f.header.encode()); err != nil {
			finalizeErr = fmt.Errorf("rewriting header: %w", err)
		}
	}

	closeErr := f.f.Close()
	if finalizeErr != nil {
		return finalizeErr
	}
	return closeErr
}

// IsEndOfPoints reports whether err is the sequential-iteration termination
// signal returned by NextPoint.
func IsEndOfPoints(err error) bool { return errors.Is(err, io.EOF) }
