package fileio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTable_WriterExcludesReaders(t *testing.T) {
	t.Parallel()

	lt := newLockTable()
	ctx := context.Background()

	release, err := lt.acquire(ctx, "/p", true)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = lt.acquire(waitCtx, "/p", false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	r1, err := lt.acquire(ctx, "/p", false)
	require.NoError(t, err)
	r2, err := lt.acquire(ctx, "/p", false)
	require.NoError(t, err)
	r1()
	r2()
}

func TestLockTable_DropsUnreferencedEntries(t *testing.T) {
	t.Parallel()

	lt := newLockTable()
	release, err := lt.acquire(context.Background(), "/a", false)
	require.NoError(t, err)
	assert.Equal(t, 1, lt.len())

	release()
	release()
	assert.Equal(t, 0, lt.len())
}
