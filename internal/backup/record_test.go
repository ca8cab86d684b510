package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord_SnapshotsOptions(t *testing.T) {
	opts := NewOptions("/mc", []Folder{Saves, Mods}, "/out.zip", true)
	opts.AddExcludedExtension("log")

	r := NewRecord(opts, 300, 2)

	assert.False(t, r.Timestamp.IsZero())
	assert.Equal(t, int64(300), r.SizeInBytes)
	assert.Equal(t, 2, r.FileCount)
	assert.Equal(t, []string{"saves", "mods"}, r.Folders)
	assert.True(t, r.Compress)
	assert.Equal(t, []string{"log"}, r.ExcludedExtensions)
}

func TestRecord_EmptyExclusionsMarshalAsArray(t *testing.T) {
	opts := NewOptions("/mc", []Folder{Saves}, "/out", false)
	data, err := NewRecord(opts, 0, 0).MarshalIndent()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `[]`, string(raw["excluded_extensions"]))
	assert.Contains(t, raw, "file_count")
}

func TestRecord_WriteJSONRoundTrip(t *testing.T) {
	opts := NewOptions("/mc", []Folder{Saves, Config}, "/out", false)
	opts.AddExcludedExtension("tmp")
	r := NewRecord(opts, 1234, 7)

	path := filepath.Join(t.TempDir(), "meta", r.FileName())
	require.NoError(t, r.WriteJSON(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), r.JSONSizeInBytes)

	parsed, err := ReadRecord(path)
	require.NoError(t, err)
	assert.True(t, parsed.Timestamp.Equal(r.Timestamp))
	assert.Equal(t, r.SizeInBytes, parsed.SizeInBytes)
	assert.Equal(t, r.FileCount, parsed.FileCount)
	assert.Equal(t, r.Folders, parsed.Folders)
	assert.Equal(t, r.Compress, parsed.Compress)
	assert.Equal(t, r.ExcludedExtensions, parsed.ExcludedExtensions)
	assert.Equal(t, r.JSONSizeInBytes, parsed.JSONSizeInBytes)
}

func TestReadRecord_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := ReadRecord(path)
	require.Error(t, err)
	var serr *SerializationError
	assert.ErrorAs(t, err, &serr)
}

func TestRecord_FileNameDerivedFromTimestamp(t *testing.T) {
	opts := NewOptions("/mc", []Folder{Saves}, "/out", false)
	r := NewRecord(opts, 0, 0)
	assert.Equal(t, "backup_metadata_"+r.Timestamp.Format("20060102150405")+".json", r.FileName())
}
