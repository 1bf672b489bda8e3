package credential

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s := NewFileStore(fs, "state/credential.json")

	key, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.Save(ctx, "first-key"))
	require.NoError(t, s.Save(ctx, "second-key"))

	key, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second-key", key)

	tmpExists, _ := afero.Exists(fs, "state/credential.json.tmp")
	assert.False(t, tmpExists)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	key, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestFileStore_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "c.json", []byte("{not json"), 0o600))

	_, err := NewFileStore(fs, "c.json").Load(context.Background())
	assert.Error(t, err)
}
