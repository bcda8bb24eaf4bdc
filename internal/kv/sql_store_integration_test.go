//go:build integration

package kv_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxuy/cxkit/internal/kv"
	"github.com/cxuy/cxkit/internal/platform/db"
)

func TestIntegrationSQLStore(t *testing.T) {
	conn := db.Setup(t)
	ctx := context.Background()

	s := kv.NewSQLStore("test-"+uuid.NewString(), conn, db.NewSQLTxManager(conn))
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() {
		if err := s.RemoveAll(context.Background()); err != nil {
			t.Logf("cleanup: %v", err)
		}
	})

	require.NoError(t, s.Put(ctx, "a", "1"))
	require.NoError(t, s.Put(ctx, "a", "2"))
	require.NoError(t, s.PutAll(ctx, map[string]string{"b": "3", "c": "4"}))

	got, err := s.Get(ctx, "a", "")
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	ok, err := s.Contains(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Remove(ctx, "c"))
	got, err = s.Get(ctx, "c", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", got)
}
