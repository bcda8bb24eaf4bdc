package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cxuy/cxkit/internal/platform/db"
)

var ErrQueryFailed = errors.New("kv: query failed")

const QueryCreateTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (namespace, key)
)
`

const QueryPut = `
INSERT INTO kv_entries (namespace, key, value)
VALUES ($1, $2, $3)
ON CONFLICT (namespace, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW()
`

const QueryGet = `
SELECT value FROM kv_entries
WHERE namespace = $1 AND key = $2
LIMIT 1
`

const QueryRemove = "DELETE FROM kv_entries WHERE namespace = $1 AND key = $2"

const QueryRemoveAll = "DELETE FROM kv_entries WHERE namespace = $1"

// SQLStore keeps a namespace in the kv_entries table so several processes
// can share it.
type SQLStore struct {
	namespace string
	db        db.Executor
	txMgr     db.TxManager
}

var _ Storage = (*SQLStore)(nil)

func NewSQLStore(namespace string, conn db.Executor, txMgr db.TxManager) *SQLStore {
	return &SQLStore{
		namespace: namespace,
		db:        conn,
		txMgr:     txMgr,
	}
}

func (s *SQLStore) Namespace() string {
	return s.namespace
}

// Migrate creates the kv_entries table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.exec(ctx).ExecContext(ctx, QueryCreateTable); err != nil {
		return fmt.Errorf("%w: create kv_entries: %v", ErrQueryFailed, err)
	}
	return nil
}

func (s *SQLStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return nil
	}
	if _, err := s.exec(ctx).ExecContext(ctx, QueryPut, s.namespace, key, value); err != nil {
		return fmt.Errorf("%w: put %s/%s: %v", ErrQueryFailed, s.namespace, key, err)
	}
	return nil
}

// PutAll writes entries in a single transaction.
func (s *SQLStore) PutAll(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	return s.txMgr.RunInTx(ctx, func(ctx context.Context) error {
		for k, v := range entries {
			if err := s.Put(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) Get(ctx context.Context, key, def string) (string, error) {
	if key == "" {
		return def, nil
	}
	var value string
	row := s.exec(ctx).QueryRowContext(ctx, QueryGet, s.namespace, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, nil
		}
		return def, fmt.Errorf("%w: get %s/%s: %v", ErrQueryFailed, s.namespace, key, err)
	}
	return value, nil
}

func (s *SQLStore) Contains(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var value string
	row := s.exec(ctx).QueryRowContext(ctx, QueryGet, s.namespace, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: contains %s/%s: %v", ErrQueryFailed, s.namespace, key, err)
	}
	return true, nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if _, err := s.exec(ctx).ExecContext(ctx, QueryRemove, s.namespace, key); err != nil {
		return fmt.Errorf("%w: remove %s/%s: %v", ErrQueryFailed, s.namespace, key, err)
	}
	return nil
}

func (s *SQLStore) RemoveAll(ctx context.Context) error {
	if _, err := s.exec(ctx).ExecContext(ctx, QueryRemoveAll, s.namespace); err != nil {
		return fmt.Errorf("%w: remove all of %s: %v", ErrQueryFailed, s.namespace, err)
	}
	return nil
}

func (s *SQLStore) exec(ctx context.Context) db.Executor {
	return db.ExecutorFromContext(ctx, s.db)
}
