package backup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderCatalog(t *testing.T) {
	expected := map[Folder]string{
		Saves:       "saves",
		Mods:        "mods",
		Config:      "config",
		Logs:        "logs",
		Screenshots: "screenshots",
		Backups:     "backups",
	}

	require.Len(t, AllFolders, len(expected))
	for _, f := range AllFolders {
		assert.Equal(t, expected[f], f.RelPath())
		assert.Equal(t, expected[f], f.String())
	}
}

func TestParseFolder(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        Folder
		expectError bool
	}{
		{name: "exact match", input: "saves", want: Saves},
		{name: "case insensitive", input: "Mods", want: Mods},
		{name: "screenshots", input: "screenshots", want: Screenshots},
		{name: "unknown name", input: "shaders", expectError: true},
		{name: "empty name", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFolder(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFolders_FailsOnFirstUnknown(t *testing.T) {
	_, err := ParseFolders([]string{"saves", "bogus", "mods"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestFolderJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal([]Folder{Saves, Backups})
	require.NoError(t, err)
	assert.JSONEq(t, `["saves","backups"]`, string(data))

	var parsed []Folder
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, []Folder{Saves, Backups}, parsed)
}

func TestFolderJSONRejectsUnknown(t *testing.T) {
	var f Folder
	err := json.Unmarshal([]byte(`"resourcepacks"`), &f)
	require.Error(t, err)
}

func TestFolderMarshalRejectsOutOfRange(t *testing.T) {
	_, err := json.Marshal(Folder(42))
	require.Error(t, err)
}
