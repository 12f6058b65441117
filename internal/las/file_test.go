package las

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Mute engine diagnostics during tests.
	SetLogger(nil)
}

func testHeader(format uint8) *Header {
	return &Header{
		PointFormatID:      format,
		Scale:              [3]float64{0.001, 0.001, 0.001},
		Offset:             [3]float64{1000, -2000, 0},
		SystemIdentifier:   "unit test",
		GeneratingSoftware: "lasfile test",
	}
}

// canonicalFields returns the layout fields excluding the aggregate views
// that alias packed bits (writing both would clobber each other).
func canonicalFields(layout Layout) []FieldDescriptor {
	skip := map[string]bool{
		"flag_byte":            true,
		"raw_classification":   true,
		"classification_flags": true,
	}
	var fields []FieldDescriptor
	for _, d := range layout.Fields {
		if !skip[d.Name] {
			fields = append(fields, d)
		}
	}
	return fields
}

// testValue generates a deterministic value for field d of record i, always
// within the field's range.
func testValue(d FieldDescriptor, i int) (uint64, int64, float64) {
	seed := i*31 + d.Offset*7 + int(d.BitShift)
	if d.packed() {
		return uint64(seed) % (1 << d.BitWidth), 0, 0
	}
	switch {
	case d.Kind.Float():
		return 0, 0, float64(seed) * 0.25
	case d.Kind.Signed():
		shift := 8*d.Size - 1
		if shift > 31 {
			shift = 31
		}
		span := int64(1) << shift
		return 0, int64(seed)%span - span/2, 0
	default:
		var span uint64 = math.MaxUint64
		if d.Size < 8 {
			span = 1 << (8 * d.Size)
		}
		return uint64(seed) % span, 0, 0
	}
}

func fillRecord(t *testing.T, rec []byte, fields []FieldDescriptor, i int) {
	t.Helper()
	for _, d := range fields {
		u, s, fl := testValue(d, i)
		var err error
		switch {
		case d.packed() || (!d.Kind.Signed() && !d.Kind.Float()):
			err = WriteFieldUint(rec, d, u)
		case d.Kind.Signed():
			err = WriteFieldInt(rec, d, s)
		default:
			err = WriteFieldFloat(rec, d, fl)
		}
		require.NoError(t, err, "field %q record %d", d.Name, i)
	}
}

func verifyRecord(t *testing.T, rec []byte, fields []FieldDescriptor, i int) {
	t.Helper()
	for _, d := range fields {
		u, s, fl := testValue(d, i)
		switch {
		case d.packed() || (!d.Kind.Signed() && !d.Kind.Float()):
			assert.Equal(t, u, ReadFieldUint(rec, d), "field %q record %d", d.Name, i)
		case d.Kind.Signed():
			assert.Equal(t, s, ReadFieldInt(rec, d), "field %q record %d", d.Name, i)
		default:
			assert.Equal(t, fl, ReadFieldFloat(rec, d), "field %q record %d", d.Name, i)
		}
	}
}

func writeTestFile(t *testing.T, path string, format uint8, n int) {
	t.Helper()
	f, err := Create(path, testHeader(format))
	require.NoError(t, err)
	fields := canonicalFields(f.accessor.Layout())
	for i := 0; i < n; i++ {
		rec := f.NewRecord()
		fillRecord(t, rec, fields, i)
		require.NoError(t, f.WritePoint(rec))
	}
	require.NoError(t, f.Close())
}

func TestRoundTripAllFormats(t *testing.T) {
	for format := uint8(0); format <= MaxPointFormat; format++ {
		t.Run(fmt.Sprintf("format%d", format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "roundtrip.las")
			const n = 17
			writeTestFile(t, path, format, n)

			f, err := Open(path)
			require.NoError(t, err)
			defer f.Close()

			assert.Equal(t, format, f.Header().PointFormatID)
			require.Equal(t, uint64(n), f.PointCount())
			fields := canonicalFields(f.accessor.Layout())
			for i := 0; i < n; i++ {
				rec, err := f.PointAt(uint64(i))
				require.NoError(t, err)
				verifyRecord(t, rec, fields, i)
			}
		})
	}
}

func TestRoundTripZeroPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.las")
	writeTestFile(t, path, 1, 0)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, uint64(0), f.PointCount())
	assert.Equal(t, [3]float64{}, f.Header().Min)
	assert.Equal(t, [3]float64{}, f.Header().Max)

	_, err = f.NextPoint()
	assert.True(t, IsEndOfPoints(err))
}

func TestTraversalEquivalence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traverse.las")
	const n = 123
	writeTestFile(t, path, 2, n)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < n; i++ {
		sequential, err := f.NextPoint()
		require.NoError(t, err, "record %d", i)
		random, err := f.PointAt(uint64(i))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(sequential, random), "record %d differs between cursor and random access", i)
	}

	// The (N+1)-th call signals end of stream without error or side effect.
	_, err = f.NextPoint()
	assert.True(t, errors.Is(err, io.EOF))
	_, err = f.NextPoint()
	assert.True(t, errors.Is(err, io.EOF))

	// Exhaustion must not have released the file.
	rec, err := f.PointAt(0)
	require.NoError(t, err)
	assert.Len(t, rec, f.RecordLength())

	f.ResetCursor()
	again, err := f.NextPoint()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(rec, again))
}

func TestPointAtOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.las")
	writeTestFile(t, path, 0, 5)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.PointAt(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndex), "want ErrIndex, got %v", err)
}

func TestWriteModeRestrictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.las")
	f, err := Create(path, testHeader(0))
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.WritePoint(f.NewRecord()))

	_, err = f.PointAt(0)
	assert.True(t, errors.Is(err, ErrMode), "random reads in write mode: %v", err)
	_, err = f.GetDimension("intensity")
	assert.True(t, errors.Is(err, ErrMode), "bulk reads in write mode: %v", err)
	err = f.UpdatePoint(0, f.NewRecord())
	assert.True(t, errors.Is(err, ErrMode), "in-place update in write mode: %v", err)
}

func TestReadModeRestrictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.las")
	writeTestFile(t, path, 0, 3)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	err = f.WritePoint(f.NewRecord())
	assert.True(t, errors.Is(err, ErrMode))
	err = f.UpdatePoint(0, f.NewRecord())
	assert.True(t, errors.Is(err, ErrMode))
	err = f.SetDimension("intensity", []float64{1, 2, 3})
	assert.True(t, errors.Is(err, ErrMode))
	err = f.DefineExtraDimension("nope", ExtraUint8, "")
	assert.True(t, errors.Is(err, ErrMode))
}

func TestDefineExtraDimensionAfterFirstPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frozen.las")
	f, err := Create(path, testHeader(0))
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.DefineExtraDimension("before", ExtraUint16, "ok"))
	require.NoError(t, f.WritePoint(f.NewRecord()))

	err = f.DefineExtraDimension("after", ExtraUint16, "too late")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMode), "want ErrMode, got %v", err)

	err = f.AppendVLR(VLR{UserID: "late"})
	assert.True(t, errors.Is(err, ErrMode))

	err = f.SetScaleOffset([3]float64{1, 1, 1}, [3]float64{})
	assert.True(t, errors.Is(err, ErrMode))
}

func TestExtraDimensionScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.las")
	f, err := Create(path, testHeader(0))
	require.NoError(t, err)
	require.NoError(t, f.DefineExtraDimension("custom_val", ExtraFloat32, "test value"))
	assert.Equal(t, 24, f.RecordLength())

	d, err := f.Resolve("custom_val")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		rec := f.NewRecord()
		require.NoError(t, WriteFieldFloat(rec, d, float64(i)*1.5))
		require.NoError(t, f.WritePoint(rec))
	}
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.ExtraDimensions(), 1)
	assert.Equal(t, "custom_val", r.ExtraDimensions()[0].Name)

	values, err := r.GetDimension("custom_val")
	require.NoError(t, err)
	want := []float64{0, 1.5, 3, 4.5, 6, 7.5, 9, 10.5, 12, 13.5}
	assert.Equal(t, want, values)
}

func TestEndToEndFormat3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e2e.las")
	const n = 1000

	f, err := Create(path, testHeader(3))
	require.NoError(t, err)

	type point struct {
		x, y, z   int64
		intensity uint64
		ret, cls  uint64
		gps       float64
		rgb       [3]uint64
	}
	points := make([]point, n)
	for i := range points {
		points[i] = point{
			x:         int64(i*3 - 1500),
			y:         int64(i * 5),
			z:         int64(-i),
			intensity: uint64(i % 65536),
			ret:       uint64(i%7 + 1),
			cls:       uint64(i % 32),
			gps:       1e5 + float64(i)*0.013,
			rgb:       [3]uint64{uint64(i % 65536), uint64((i * 2) % 65536), uint64((i * 3) % 65536)},
		}
	}

	for i, p := range points {
		rec := f.NewRecord()
		set := func(name string, fn func(d FieldDescriptor) error) {
			d, err := f.Resolve(name)
			require.NoError(t, err)
			require.NoError(t, fn(d), "record %d field %s", i, name)
		}
		set("X", func(d FieldDescriptor) error { return WriteFieldInt(rec, d, p.x) })
		set("Y", func(d FieldDescriptor) error { return WriteFieldInt(rec, d, p.y) })
		set("Z", func(d FieldDescriptor) error { return WriteFieldInt(rec, d, p.z) })
		set("intensity", func(d FieldDescriptor) error { return WriteFieldUint(rec, d, p.intensity) })
		set("return_num", func(d FieldDescriptor) error { return WriteFieldUint(rec, d, p.ret%8) })
		set("classification", func(d FieldDescriptor) error { return WriteFieldUint(rec, d, p.cls) })
		set("gps_time", func(d FieldDescriptor) error { return WriteFieldFloat(rec, d, p.gps) })
		set("red", func(d FieldDescriptor) error { return WriteFieldUint(rec, d, p.rgb[0]) })
		set("green", func(d FieldDescriptor) error { return WriteFieldUint(rec, d, p.rgb[1]) })
		set("blue", func(d FieldDescriptor) error { return WriteFieldUint(rec, d, p.rgb[2]) })
		require.NoError(t, f.WritePoint(rec))
	}
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint64(n), r.PointCount())
	for i := 0; i < n; i++ {
		rec, err := r.PointAt(uint64(i))
		require.NoError(t, err)
		p := points[i]
		get := func(name string) FieldDescriptor {
			d, err := r.Resolve(name)
			require.NoError(t, err)
			return d
		}
		assert.Equal(t, p.x, ReadFieldInt(rec, get("X")), "record %d X", i)
		assert.Equal(t, p.y, ReadFieldInt(rec, get("Y")), "record %d Y", i)
		assert.Equal(t, p.z, ReadFieldInt(rec, get("Z")), "record %d Z", i)
		assert.Equal(t, p.intensity, ReadFieldUint(rec, get("intensity")), "record %d intensity", i)
		assert.Equal(t, p.ret%8, ReadFieldUint(rec, get("return_num")), "record %d return", i)
		assert.Equal(t, p.cls, ReadFieldUint(rec, get("classification")), "record %d class", i)
		assert.Equal(t, p.gps, ReadFieldFloat(rec, get("gps_time")), "record %d gps", i)
		assert.Equal(t, p.rgb[0], ReadFieldUint(rec, get("red")), "record %d red", i)
		assert.Equal(t, p.rgb[1], ReadFieldUint(rec, get("green")), "record %d green", i)
		assert.Equal(t, p.rgb[2], ReadFieldUint(rec, get("blue")), "record %d blue", i)
	}
}

func TestHeaderFinalization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounds.las")
	f, err := Create(path, testHeader(0))
	require.NoError(t, err)

	xd, _ := f.Resolve("X")
	yd, _ := f.Resolve("Y")
	zd, _ := f.Resolve("Z")
	rd, _ := f.Resolve("return_num")
	for _, raw := range []int64{-1000, 500, 2000} {
		rec := f.NewRecord()
		require.NoError(t, WriteFieldInt(rec, xd, raw))
		require.NoError(t, WriteFieldInt(rec, yd, raw*2))
		require.NoError(t, WriteFieldInt(rec, zd, raw*3))
		require.NoError(t, WriteFieldUint(rec, rd, 1))
		require.NoError(t, f.WritePoint(rec))
	}
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	assert.Equal(t, uint64(3), r.PointCount())
	// scale 0.001, offset X=1000: raw -1000 -> 999, raw 2000 -> 1002.
	assert.InDelta(t, 999, h.Min[0], 1e-9)
	assert.InDelta(t, 1002, h.Max[0], 1e-9)
	assert.InDelta(t, -2002, h.Min[1], 1e-9)
	assert.InDelta(t, -1996, h.Max[1], 1e-9)
	assert.InDelta(t, -3, h.Min[2], 1e-9)
	assert.InDelta(t, 6, h.Max[2], 1e-9)
	assert.Equal(t, uint32(3), h.LegacyPointsByReturn[0])
}

func TestScaledDimensionAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaled.las")
	f, err := Create(path, testHeader(0))
	require.NoError(t, err)

	xd, _ := f.Resolve("X")
	raws := []int64{-5000, 0, 12345}
	for _, raw := range raws {
		rec := f.NewRecord()
		require.NoError(t, WriteFieldInt(rec, xd, raw))
		require.NoError(t, f.WritePoint(rec))
	}
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rawVals, err := r.GetDimension("X")
	require.NoError(t, err)
	scaled, err := r.GetDimension("x")
	require.NoError(t, err)
	for i, raw := range raws {
		assert.Equal(t, float64(raw), rawVals[i])
		assert.InDelta(t, float64(raw)*0.001+1000, scaled[i], 1e-9)
	}
}

func TestAppendModeInPlaceMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.las")
	const n = 50
	writeTestFile(t, path, 1, n)

	f, err := OpenAppend(path)
	require.NoError(t, err)

	// Bulk rewrite of one dimension.
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i * 11 % 4096)
	}
	require.NoError(t, f.SetDimension("intensity", values))

	// Single-record rewrite.
	rec, err := f.PointAt(7)
	require.NoError(t, err)
	d, err := f.Resolve("user_data")
	require.NoError(t, err)
	require.NoError(t, WriteFieldUint(rec, d, 99))
	require.NoError(t, f.UpdatePoint(7, rec))

	// Appending new records is not part of this mode.
	err = f.WritePoint(f.NewRecord())
	assert.True(t, errors.Is(err, ErrMode))
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint64(n), r.PointCount(), "append mode must not change the record count")
	got, err := r.GetDimension("intensity")
	require.NoError(t, err)
	assert.Equal(t, values, got)

	rec, err = r.PointAt(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), ReadFieldUint(rec, d))
}

func TestSetDimensionLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.las")
	writeTestFile(t, path, 0, 4)

	f, err := OpenAppend(path)
	require.NoError(t, err)
	defer f.Close()

	err = f.SetDimension("intensity", []float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndex), "want ErrIndex, got %v", err)
}

func TestSetHeaderAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdr.las")
	writeTestFile(t, path, 0, 2)

	f, err := OpenAppend(path)
	require.NoError(t, err)

	h := *f.Header()
	h.SystemIdentifier = "rewritten"
	require.NoError(t, f.SetHeader(&h))

	// Geometry changes are rejected.
	bad := h
	bad.PointRecordLength = 99
	err = f.SetHeader(&bad)
	assert.True(t, errors.Is(err, ErrFormat))
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "rewritten", r.Header().SystemIdentifier)
}

func TestSetHeaderRequiresAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdr2.las")
	writeTestFile(t, path, 0, 1)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	err = f.SetHeader(f.Header())
	assert.True(t, errors.Is(err, ErrMode))
}

func TestCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.las")
	writeTestFile(t, path, 0, 1)

	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.PointAt(0)
	assert.True(t, errors.Is(err, ErrMode))
}

func TestVLRsPreservedVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vlr.las")
	f, err := Create(path, testHeader(0))
	require.NoError(t, err)

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	require.NoError(t, f.AppendVLR(VLR{
		UserID:      "third_party",
		RecordID:    4242,
		Description: "opaque metadata",
		Payload:     payload,
	}))
	require.NoError(t, f.WritePoint(f.NewRecord()))
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.VLRs(), 1)
	v := r.VLRs()[0]
	assert.Equal(t, "third_party", v.UserID)
	assert.Equal(t, uint16(4242), v.RecordID)
	assert.True(t, bytes.Equal(payload, v.Payload))
}

func TestEVLRRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evlr.las")
	f, err := Create(path, testHeader(6))
	require.NoError(t, err)

	big := make([]byte, 70000) // larger than a VLR payload can be
	for i := range big {
		big[i] = byte(i % 251)
	}
	require.NoError(t, f.AppendEVLR(EVLR{UserID: "bulk", RecordID: 7, Payload: big}))
	require.NoError(t, f.WritePoint(f.NewRecord()))
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.EVLRs(), 1)
	assert.True(t, bytes.Equal(big, r.EVLRs()[0].Payload))
	assert.Equal(t, uint32(1), r.Header().EVLRCount)
}

func TestCreateValidation(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(filepath.Join(dir, "nil.las"), nil)
	assert.True(t, errors.Is(err, ErrFormat))

	h := testHeader(11)
	_, err = Create(filepath.Join(dir, "fmt.las"), h)
	assert.True(t, errors.Is(err, ErrFormat))

	h = testHeader(0)
	h.Scale[1] = 0
	_, err = Create(filepath.Join(dir, "scale.las"), h)
	assert.True(t, errors.Is(err, ErrFormat))

	h = testHeader(6)
	h.VersionMajor = 1
	h.VersionMinor = 2 // too old for format 6
	_, err = Create(filepath.Join(dir, "ver.las"), h)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestCreateDefaultVersions(t *testing.T) {
	cases := []struct {
		format uint8
		minor  uint8
	}{{0, 2}, {3, 2}, {4, 3}, {5, 3}, {6, 4}, {10, 4}}
	for _, tc := range cases {
		path := filepath.Join(t.TempDir(), fmt.Sprintf("v%d.las", tc.format))
		f, err := Create(path, testHeader(tc.format))
		require.NoError(t, err, "format %d", tc.format)
		assert.Equal(t, uint8(1), f.Header().VersionMajor)
		assert.Equal(t, tc.minor, f.Header().VersionMinor, "format %d default version", tc.format)
		require.NoError(t, f.Close())
	}
}

func TestOpenCorruptEVLRLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evlr-corrupt.las")
	f, err := Create(path, testHeader(6))
	require.NoError(t, err)
	require.NoError(t, f.AppendEVLR(EVLR{UserID: "bulk", RecordID: 7, Payload: []byte{1, 2, 3}}))
	require.NoError(t, f.WritePoint(f.NewRecord()))
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	start := r.Header().StartOfFirstEVLR
	require.NoError(t, r.Close())

	// Corrupt the on-disk payload length field of the first EVLR.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint64(raw[start+20:], 1<<62)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptFile), "want ErrCorruptFile, got %v", err)
}

func TestOpenPaddedHeaderVLRBoundary(t *testing.T) {
	// A pre-1.3 header may declare more than 227 bytes; the VLR overrun
	// check must measure from the declared size, not the fixed layout.
	path := filepath.Join(t.TempDir(), "padded.las")

	h := sampleHeader12()
	h.VLRCount = 1
	h.PointFormatID = 0
	h.PointRecordLength = 20
	h.LegacyPointCount = 0
	h.LegacyPointsByReturn = [5]uint32{}
	h.OffsetToPointData = 237 + vlrHeaderSize + 4 // room for a 4-byte payload
	buf := h.encode()
	buf[94] = 237 // declared header size: 10 bytes of padding

	var stream bytes.Buffer
	stream.Write(buf)
	stream.Write(make([]byte, 10))
	enc, err := VLR{UserID: "pad", Payload: make([]byte, 10)}.encode()
	require.NoError(t, err)
	stream.Write(enc)
	require.NoError(t, os.WriteFile(path, stream.Bytes(), 0o644))

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptFile), "want ErrCorruptFile, got %v", err)
}

func TestOpenCorruptTruncatedPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc.las")
	writeTestFile(t, path, 0, 10)

	// Chop off the last record's tail.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-5], 0o644))

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptFile), "want ErrCorruptFile, got %v", err)
}

func TestWritePointWrongLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "len.las")
	f, err := Create(path, testHeader(0))
	require.NoError(t, err)
	defer f.Close()

	err = f.WritePoint(make([]byte, 19))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValueOutOfRange))
}
