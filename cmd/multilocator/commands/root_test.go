package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RequiresConfigFlag(t *testing.T) {
	root := GetRootCmd()
	root.SetArgs([]string{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	assert.Error(t, err)
}

func TestVersionCmd_PrintsBuildInfo(t *testing.T) {
	Version, Commit, Date = "1.2.3", "abc123", "2026-01-01"

	root := GetRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})

	err := root.Execute()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "1.2.3")
	assert.Contains(t, out.String(), "abc123")
}

func TestConfigShowCmd_InheritsPersistentConfigFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
multilocator_id: ml-01
broker: "localhost:1883"
locators:
  - id: loc-a
  - id: loc-b
`), 0600))

	root := GetRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"config", "show", "-c", path, "-o", "json"})

	err := root.Execute()
	require.NoError(t, err)
}
