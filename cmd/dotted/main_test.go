package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhy/dotted"
	"github.com/jrhy/dotted/internal/config"
	"github.com/jrhy/dotted/persist/file"
	s3persist "github.com/jrhy/dotted/persist/s3"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "absent.yaml"), "--dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, args)
	return out
}

func TestSetGet(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "set", "user.name", "Ana")
	mustRun(t, dir, "set", "user.age", "30")

	assert.Equal(t, "Ana\n", mustRun(t, dir, "get", "user.name"))
	assert.Equal(t, "30\n", mustRun(t, dir, "get", "user.age"))
	assert.Equal(t, `{"age":30,"name":"Ana"}`+"\n", mustRun(t, dir, "get", "user:"))

	b, err := os.ReadFile(filepath.Join(dir, "dotted.json"))
	require.NoError(t, err)
	snapshot, err := dotted.DecodeSnapshot(dotted.FormatJSON, b)
	require.NoError(t, err)
	assert.Equal(t, "dotted", snapshot.Name)
	require.NoError(t, snapshot.Verify())
}

func TestGetMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "get", "nope")
	assert.Error(t, err)
	assert.Equal(t, "light\n", mustRun(t, dir, "get", "theme", "--default", "light"))
	_, err = run(t, dir, "get", "")
	assert.ErrorIs(t, err, dotted.ErrEmptyKey)
}

func TestPrimaryValues(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "set", "a", "x")
	mustRun(t, dir, "set", "a.b", "y")
	assert.Equal(t, "x\n", mustRun(t, dir, "get", "a"))
	assert.Equal(t, `{"b":"y"}`+"\n", mustRun(t, dir, "get", "a."))
	assert.Equal(t, `{"@value":"x","b":"y"}`+"\n", mustRun(t, dir, "get", "a:"))
	assert.Equal(t, "a=x\na.b=y\n", mustRun(t, dir, "flatten"))
	assert.Equal(t, "a=x\na/b=y\n", mustRun(t, dir, "flatten", "--delimiter", "/"))
}

func TestAddPushHasDelete(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "true\n", mustRun(t, dir, "add", "theme", "dark"))
	assert.Equal(t, "false\n", mustRun(t, dir, "add", "theme", "light"))
	assert.Equal(t, "dark\n", mustRun(t, dir, "get", "theme"))

	mustRun(t, dir, "push", "recent", "1")
	mustRun(t, dir, "push", "recent", "two")
	mustRun(t, dir, "push", "recent", "3", "--string")
	assert.Equal(t, `[1,"two","3"]`+"\n", mustRun(t, dir, "get", "recent"))
	_, err := run(t, dir, "push", "theme", "x")
	assert.ErrorIs(t, err, dotted.ErrNotSequence)

	assert.Equal(t, "true\n", mustRun(t, dir, "has", "theme", "recent"))
	mustRun(t, dir, "rm", "theme")
	assert.Equal(t, "false\n", mustRun(t, dir, "has", "theme", "recent"))
	assert.Equal(t, "true\n", mustRun(t, dir, "has", "recent"))
}

func TestDryRun(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "set", "k", "v", "--dry-run")
	_, err := os.Stat(filepath.Join(dir, "dotted.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "written\n", mustRun(t, dir, "save"))
	assert.Equal(t, "unchanged\n", mustRun(t, dir, "save"))
	mustRun(t, dir, "set", "k", "v")
	assert.Equal(t, "unchanged\n", mustRun(t, dir, "save"))
}

func TestYAMLArtifact(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "-a", "prefs.yaml", "set", "editor", "{tabs: 4, wrap: true}")
	assert.Equal(t, "4\n", mustRun(t, dir, "-a", "prefs.yaml", "get", "editor.tabs"))
	assert.Equal(t, "editor:\n    tabs: 4\n    wrap: true\n", mustRun(t, dir, "-a", "prefs.yaml", "dump", "-o", "yaml"))
	assert.Equal(t, "{\n  \"editor\": {\n    \"tabs\": 4,\n    \"wrap\": true\n  }\n}\n",
		mustRun(t, dir, "-a", "prefs.yaml", "dump"))
	_, err := run(t, dir, "-a", "prefs.yaml", "dump", "-o", "toml")
	assert.Error(t, err)

	s, err := dotted.Open(context.Background(), file.NewPersistForPath(dir), "prefs.yaml")
	require.NoError(t, err)
	assert.Equal(t, "prefs", s.Name())
	tabs, err := s.Get("editor.tabs", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, tabs)
}

func TestNameMismatch(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "--name", "alpha", "set", "k", "v")
	_, err := run(t, dir, "--name", "beta", "get", "k")
	assert.ErrorIs(t, err, dotted.ErrProvenance)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "dotted.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
store:
  dir: `+dir+`
  artifact: settings.yaml
  delimiter: /
`), 0o600))
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", configPath, "set", "a/b.c", "1"})
	require.NoError(t, cmd.Execute())

	s, err := dotted.Open(context.Background(), file.NewPersistForPath(dir), "settings.yaml",
		dotted.WithStoreDelimiter("/"))
	require.NoError(t, err)
	v, err := s.Get("a/b.c", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestOpenPersist(t *testing.T) {
	p, err := openPersist(config.StoreConfig{Dir: "/tmp/x"})
	require.NoError(t, err)
	assert.IsType(t, file.Persist{}, p)

	p, err = openPersist(config.StoreConfig{Bucket: "b", Prefix: "p/", Endpoint: "http://localhost:9000", Region: "x"})
	require.NoError(t, err)
	require.IsType(t, &s3persist.Persist{}, p)
	assert.Equal(t, "s3://b/p/prefs.json", p.Locate("prefs.json"))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 4, parseValue("4", false))
	assert.Equal(t, "4", parseValue("4", true))
	assert.Equal(t, true, parseValue("true", false))
	assert.Equal(t, 1.5, parseValue("1.5", false))
	assert.Equal(t, []any{"a", "b"}, parseValue("[a, b]", false))
	assert.Equal(t, map[string]any{"k": "v"}, parseValue("{k: v}", false))
	assert.Equal(t, "", parseValue("", false))
	assert.Nil(t, parseValue("null", false))
	assert.Equal(t, "[unclosed", parseValue("[unclosed", false))
}
