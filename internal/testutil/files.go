package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/coral-mesh/sigscan/internal/signature"
)

// WriteFile writes data to name inside a fresh temporary directory and
// returns the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteSignatures writes sigs as a JSON list and returns the path.
func WriteSignatures(t *testing.T, sigs []signature.Signature) string {
	t.Helper()
	data, err := json.Marshal(sigs)
	if err != nil {
		t.Fatalf("failed to marshal signatures: %v", err)
	}
	return WriteFile(t, "signatures.json", data)
}
