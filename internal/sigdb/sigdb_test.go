package sigdb

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/sigscan/internal/signature"
	"github.com/coral-mesh/sigscan/internal/testutil"
)

func writeDB(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, name, []byte(content))
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"sigs.json": FormatJSON,
		"sigs.yaml": FormatYAML,
		"sigs.YML":  FormatYAML,
		"sigs":      FormatJSON,
		"sigs.txt":  FormatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFor(path), path)
	}
}

func TestLoader_Load(t *testing.T) {
	want := []signature.Signature{
		{Name: "EICAR", Pattern: "58354f21"},
		{Name: "Wild", Pattern: "58??4f21"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "json list",
			file:    "sigs.json",
			content: `[{"name":"EICAR","pattern":"58354f21"},{"name":"Wild","pattern":"58??4f21","family":"test"}]`,
		},
		{
			name:    "json document",
			file:    "sigs.json",
			content: `{"version":"1","signatures":[{"name":"EICAR","pattern":"58354f21"},{"name":"Wild","pattern":"58??4f21"}]}`,
		},
		{
			name: "yaml list",
			file: "sigs.yaml",
			content: `- name: EICAR
  pattern: "58354f21"
- name: Wild
  pattern: "58??4f21"
`,
		},
		{
			name: "yaml document",
			file: "sigs.yml",
			content: `signatures:
  - name: EICAR
    pattern: "58354f21"
  - name: Wild
    pattern: "58??4f21"
`,
		},
	}

	loader := NewLoader(testutil.NewTestLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := loader.Load(writeDB(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, db.Signatures)
			assert.Equal(t, FormatFor(tt.file), db.Format)
		})
	}
}

func TestLoader_LoadKeepsMalformedEntries(t *testing.T) {
	path := writeDB(t, "sigs.json", `[{"name":"odd","pattern":"583"},{"name":"ok","pattern":"00"}]`)

	db, err := NewLoader(testutil.NewTestLogger(t)).Load(path)
	require.NoError(t, err)
	assert.Len(t, db.Signatures, 2)
}

func TestLoader_LoadErrors(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.json") },
			wantErr: "failed to read",
		},
		{
			name:    "directory",
			path:    func(t *testing.T) string { return t.TempDir() },
			wantErr: "not a regular file",
		},
		{
			name:    "empty",
			path:    func(t *testing.T) string { return writeDB(t, "sigs.json", "  \n") },
			wantErr: "empty document",
		},
		{
			name:    "bad json",
			path:    func(t *testing.T) string { return writeDB(t, "sigs.json", `[{"name":`) },
			wantErr: "failed to parse",
		},
		{
			name:    "object without signatures",
			path:    func(t *testing.T) string { return writeDB(t, "sigs.json", `{"name":"x"}`) },
			wantErr: "no \"signatures\" list",
		},
		{
			name:    "yaml scalar",
			path:    func(t *testing.T) string { return writeDB(t, "sigs.yaml", "just text\n") },
			wantErr: "top level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoader_SizeLimit(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))
	loader.maxSize = 16

	path := writeDB(t, "sigs.json", `[{"name":"`+strings.Repeat("a", 32)+`","pattern":"00"}]`)
	_, err := loader.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum allowed size")
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte("[]"), Format("toml"))
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.NotContains(t, doc, "$defs")

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "signatures")
	assert.Contains(t, string(out), `"pattern"`)
}
