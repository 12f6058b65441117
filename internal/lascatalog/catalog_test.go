package lascatalog

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lasfile/internal/las"
)

func setupCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleRecord(path string) *FileRecord {
	return &FileRecord{
		Path:            path,
		VersionMajor:    1,
		VersionMinor:    2,
		PointFormat:     3,
		RecordLength:    34,
		PointCount:      1000,
		VLRCount:        2,
		ExtraDimensions: []string{"custom_val", "height"},
		Min:             [3]float64{-1, -2, -3},
		Max:             [3]float64{1, 2, 3},
	}
}

func TestUpsertAndGet(t *testing.T) {
	c := setupCatalog(t)

	rec := sampleRecord("/data/a.las")
	require.NoError(t, c.Upsert(rec))
	assert.NotEmpty(t, rec.FileID, "Upsert must assign a file id")
	assert.NotZero(t, rec.ScannedAtNs)

	got, err := c.GetByPath("/data/a.las")
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestGetUnknownPath(t *testing.T) {
	c := setupCatalog(t)
	got, err := c.GetByPath("/missing.las")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertReplacesByPath(t *testing.T) {
	c := setupCatalog(t)

	rec := sampleRecord("/data/a.las")
	require.NoError(t, c.Upsert(rec))

	updated := sampleRecord("/data/a.las")
	updated.PointCount = 2000
	updated.ExtraDimensions = nil
	require.NoError(t, c.Upsert(updated))

	all, err := c.List()
	require.NoError(t, err)
	require.Len(t, all, 1, "rescanning a path must replace its row")
	assert.Equal(t, uint64(2000), all[0].PointCount)
	assert.Empty(t, all[0].ExtraDimensions)
}

func TestListOrdering(t *testing.T) {
	c := setupCatalog(t)
	for _, p := range []string{"/data/c.las", "/data/a.las", "/data/b.las"} {
		require.NoError(t, c.Upsert(sampleRecord(p)))
	}
	all, err := c.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/data/a.las", all[0].Path)
	assert.Equal(t, "/data/c.las", all[2].Path)
}

func TestDelete(t *testing.T) {
	c := setupCatalog(t)
	require.NoError(t, c.Upsert(sampleRecord("/data/a.las")))
	require.NoError(t, c.Delete("/data/a.las"))
	require.NoError(t, c.Delete("/data/a.las")) // unknown path is a no-op

	got, err := c.GetByPath("/data/a.las")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScanLASFile(t *testing.T) {
	las.SetLogger(nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.las")

	f, err := las.Create(path, &las.Header{
		PointFormatID: 1,
		Scale:         [3]float64{0.01, 0.01, 0.01},
	})
	require.NoError(t, err)
	require.NoError(t, f.DefineExtraDimension("custom_val", las.ExtraFloat32, "test"))
	xd, err := f.Resolve("X")
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		rec := f.NewRecord()
		require.NoError(t, las.WriteFieldInt(rec, xd, int64(i*100)))
		require.NoError(t, f.WritePoint(rec))
	}
	require.NoError(t, f.Close())

	c := setupCatalog(t)
	rec, err := c.Scan(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), rec.PointFormat)
	assert.Equal(t, uint64(25), rec.PointCount)
	assert.Equal(t, []string{"custom_val"}, rec.ExtraDimensions)
	assert.Equal(t, 32, rec.RecordLength) // 28-byte base + 4-byte extra

	stored, err := c.GetByPath(path)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.FileID, stored.FileID)
}
