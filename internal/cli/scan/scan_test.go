package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/sigscan/internal/cli/helpers"
	"github.com/coral-mesh/sigscan/internal/constants"
)

const testDB = `[
  {"name": "EICAR", "pattern": "58354f21"},
  {"name": "Wild", "pattern": "58??4f21"},
  {"name": "Broken", "pattern": "5g"}
]`

type fixture struct {
	dir      string
	db       string
	infected string
	clean    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(constants.ConfigDirEnv, dir)
	t.Setenv("NO_COLOR", "1")

	f := fixture{
		dir:      dir,
		db:       filepath.Join(dir, "sigs.json"),
		infected: filepath.Join(dir, "infected.bin"),
		clean:    filepath.Join(dir, "clean.bin"),
	}
	require.NoError(t, os.WriteFile(f.db, []byte(testDB), 0o600))
	require.NoError(t, os.WriteFile(f.infected, []byte("xxX5O!xx"), 0o600))
	require.NoError(t, os.WriteFile(f.clean, []byte("nothing to see here"), 0o600))
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewScanCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanCmd_JSON(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "--signatures", f.db, "-o", "json", f.infected)
	assert.Equal(t, helpers.ExitInfected, helpers.ExitCode(err))

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, true, rep["is_infected"])
	assert.EqualValues(t, 2, rep["matches_found"])
	assert.EqualValues(t, 2, rep["signatures_checked"])
	assert.EqualValues(t, 1, rep["signatures_skipped"])
	assert.Equal(t, "results_ready", rep["state"])
	assert.Contains(t, rep, "metrics")
	require.Contains(t, rep, "timings")
	assert.Contains(t, rep["timings"], "table_build")
}

func TestScanCmd_Clean(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "--signatures", f.db, "--no-progress", f.clean)
	require.NoError(t, err)
	assert.Contains(t, out, "CLEAN")
}

func TestScanCmd_TableVerbose(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "--signatures", f.db, "-v", f.infected)
	assert.Equal(t, helpers.ExitInfected, helpers.ExitCode(err))
	assert.Contains(t, out, "INFECTED - 2 threats found: EICAR, Wild")
	assert.Contains(t, out, "Occurrences")
	assert.Contains(t, out, "kernel (")
	assert.Contains(t, out, "table build (")
	assert.Contains(t, out, "Throughput:")
}

func TestScanCmd_CSV(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "--signatures", f.db, "-o", "csv", f.infected)
	assert.Equal(t, helpers.ExitInfected, helpers.ExitCode(err))
	assert.Equal(t, "Signature,Occurrences\nEICAR,1\nWild,1\n", out)
}

func TestScanCmd_Markdown(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "--signatures", f.db, "-o", "markdown", f.infected)
	assert.Equal(t, helpers.ExitInfected, helpers.ExitCode(err))
	assert.Contains(t, out, "Scan report")
	assert.Contains(t, out, "EICAR")
}

func TestScanCmd_Filter(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "--signatures", f.db, "--filter", "wildcards == 0", "-o", "json", f.infected)
	assert.Equal(t, helpers.ExitInfected, helpers.ExitCode(err))

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.EqualValues(t, 1, rep["matches_found"])
}

func TestScanCmd_MaxSignatures(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "--signatures", f.db, "--max-signatures", "1", "-o", "json", f.infected)
	assert.Equal(t, helpers.ExitInfected, helpers.ExitCode(err))

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.EqualValues(t, 1, rep["signatures_checked"])
	assert.EqualValues(t, 0, rep["signatures_skipped"])
}

func TestScanCmd_Failures(t *testing.T) {
	f := newFixture(t)

	t.Run("missing target", func(t *testing.T) {
		out, err := run(t, "--signatures", f.db, "-o", "json", filepath.Join(f.dir, "missing.bin"))
		require.Error(t, err)
		assert.Equal(t, helpers.ExitFailure, helpers.ExitCode(err))
		assert.False(t, helpers.Silent(err))

		var rep map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		assert.Equal(t, "file_access", rep["error_kind"])
		assert.Equal(t, false, rep["is_infected"])
	})

	t.Run("missing database", func(t *testing.T) {
		_, err := run(t, "--signatures", filepath.Join(f.dir, "nope.json"), f.clean)
		require.Error(t, err)
		assert.Equal(t, helpers.ExitFailure, helpers.ExitCode(err))
	})

	t.Run("no valid signatures", func(t *testing.T) {
		db := filepath.Join(f.dir, "broken.json")
		require.NoError(t, os.WriteFile(db, []byte(`[{"name":"x","pattern":"123"}]`), 0o600))
		_, err := run(t, "--signatures", db, f.clean)
		assert.ErrorContains(t, err, "no valid signatures")
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := run(t, "--signatures", f.db, "-o", "xml", f.clean)
		assert.ErrorContains(t, err, "unsupported format")
	})

	t.Run("bad filter", func(t *testing.T) {
		_, err := run(t, "--signatures", f.db, "--filter", "length", f.clean)
		assert.Error(t, err)
	})
}
