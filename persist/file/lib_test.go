package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestFiles(t *testing.T) {
	dir, err := os.MkdirTemp("", "test")
	require.NoError(t, err)

	p := NewPersistForPath(dir)

	exists, err := p.Exists(ctx, "foo.json")
	require.NoError(t, err)
	assert.False(t, exists)

	err = p.Store(ctx, "foo.json", []byte("hello"))
	require.NoError(t, err)
	exists, err = p.Exists(ctx, "foo.json")
	require.NoError(t, err)
	assert.True(t, exists)
	loaded, err := p.Load(ctx, "foo.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), loaded)

	err = p.Store(ctx, "foo.json", []byte("hi"))
	require.NoError(t, err)
	loaded, err = p.Load(ctx, "foo.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), loaded, "rewrite must replace, not append")

	if !t.Failed() {
		os.RemoveAll(dir)
	} else {
		fmt.Println("temp directory:", dir)
	}
}

func TestStoreCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	p := NewPersistForPath(dir)
	require.NoError(t, p.Store(ctx, "nested/deeper/prefs.yaml", []byte("a: 1\n")))
	b, err := os.ReadFile(filepath.Join(dir, "nested", "deeper", "prefs.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(b))
}

func TestLocateIsAbsolute(t *testing.T) {
	p := NewPersistForPath("relative/dir")
	loc := p.Locate("prefs.json")
	assert.True(t, filepath.IsAbs(loc), loc)
	assert.Equal(t, "prefs.json", filepath.Base(loc))
}
