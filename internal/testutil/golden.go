package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set.
const UpdateGoldenEnv = "GREENGARDEN_UPDATE_GOLDEN"

// Golden compares got with testdata/<name>.golden.
func Golden(t *testing.T, name string, got string) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")

	if os.Getenv(UpdateGoldenEnv) != "" {
		gt.NoError(t, os.MkdirAll("testdata", 0755)).Required()
		gt.NoError(t, os.WriteFile(path, []byte(got), 0644)).Required()
		return
	}

	want, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(string(want))
}
