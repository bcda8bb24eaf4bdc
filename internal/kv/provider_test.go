package kv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxuy/cxkit/internal/kv"
)

func TestProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := kv.NewProvider(t.TempDir(), nil, nil, 0)

	_, err := p.Get("missing")
	assert.ErrorIs(t, err, kv.ErrStorageNotFound)

	mem := kv.NewMemoryStorage()
	p.Add("mem", mem)
	got, err := p.Get("mem")
	require.NoError(t, err)
	assert.Same(t, mem, got)

	first, err := p.OpenFile("settings")
	require.NoError(t, err)
	second, err := p.OpenFile("settings")
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, first.Put(ctx, "k", "v"))
	require.NoError(t, p.Close(ctx))

	p.Remove("mem")
	_, err = p.Get("mem")
	assert.ErrorIs(t, err, kv.ErrStorageNotFound)
}
