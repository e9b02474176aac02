package s3_test

import (
	"context"
	"testing"

	"github.com/jrhy/dotted"
	s3Persist "github.com/jrhy/dotted/persist/s3"
	"github.com/jrhy/dotted/persist/s3test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyCase(t *testing.T) {
	t.Parallel()
	c, bucketName, closer := s3test.Client()
	defer closer()

	p := s3Persist.NewPersist(c, bucketName, "prefix/")
	exists, err := p.Exists(context.Background(), "foofoo")
	require.NoError(t, err)
	assert.False(t, exists)

	err = p.Store(context.Background(), "foofoo", []byte("here is some stuff"))
	require.NoError(t, err)
	exists, err = p.Exists(context.Background(), "foofoo")
	require.NoError(t, err)
	assert.True(t, exists)
	b, err := p.Load(context.Background(), "foofoo")
	require.NoError(t, err)
	assert.Equal(t, []byte("here is some stuff"), b)
	assert.Equal(t, "s3://"+bucketName+"/prefix/foofoo", p.Locate("foofoo"))
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, bucketName, closer := s3test.Client()
	defer closer()
	p := s3Persist.NewPersist(c, bucketName, "")

	store, err := dotted.Open(ctx, p, "prefs.yaml", dotted.WithAccelerator(dotted.NewSnapshotCache(4)))
	require.NoError(t, err)
	require.NoError(t, store.Set("theme", "dark"))
	require.NoError(t, store.Set("editor.tabs", 4))
	wrote, err := store.Save(ctx)
	require.NoError(t, err)
	require.True(t, wrote)

	// A fresh accelerator forces the snapshot to come back from S3.
	loaded, err := dotted.Open(ctx, p, "prefs.yaml", dotted.WithAccelerator(dotted.NewSnapshotCache(4)))
	require.NoError(t, err)
	theme, err := loaded.Get("theme", nil)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
	tabs, err := loaded.Get("editor.tabs", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, tabs)
	wrote, err = loaded.Save(ctx)
	require.NoError(t, err)
	assert.False(t, wrote)
}
