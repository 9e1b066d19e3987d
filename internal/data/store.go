package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// SQLStore is the durable keyed store backed by SQLite. Expiry is
// lazy: reads treat expired rows as absent, and PurgeExpired removes
// them for good.
type SQLStore struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS kv_list (
	key   TEXT NOT NULL,
	pos   INTEGER NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (key, pos)
);
CREATE TABLE IF NOT EXISTS kv_list_meta (
	key        TEXT PRIMARY KEY,
	expires_at INTEGER NOT NULL DEFAULT 0
);
`

// NewSQLStore opens (and migrates) the store at the given path.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// SQLite serializes writers, one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func expiryUnix(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(ttl).UnixMilli()
}

func nowUnix() int64 {
	return time.Now().UnixMilli()
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	if expiresAt != 0 && expiresAt <= nowUnix() {
		return "", repo.ErrNotFound
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiryUnix(ttl),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	// An expired row counts as absent, so claim it too.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
		 WHERE kv.expires_at != 0 AND kv.expires_at <= ?`,
		key, value, expiryUnix(ttl), nowUnix(),
	)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	for _, q := range []string{
		`DELETE FROM kv WHERE key = ?`,
		`DELETE FROM kv_list WHERE key = ?`,
		`DELETE FROM kv_list_meta WHERE key = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, q, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *SQLStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	expiresAt := expiryUnix(ttl)
	now := nowUnix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE kv SET expires_at = ? WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		expiresAt, key, now,
	)
	if err != nil {
		return false, fmt.Errorf("expire %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	res, err = s.db.ExecContext(ctx,
		`INSERT INTO kv_list_meta (key, expires_at)
		 SELECT ?, ? WHERE EXISTS (SELECT 1 FROM kv_list WHERE key = ?)
		 ON CONFLICT(key) DO UPDATE SET expires_at = excluded.expires_at`,
		key, expiresAt, key,
	)
	if err != nil {
		return false, fmt.Errorf("expire list %s: %w", key, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLStore) Incr(ctx context.Context, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	defer tx.Rollback()

	var current int64
	var expiresAt int64
	err = tx.QueryRowContext(ctx,
		`SELECT CAST(value AS INTEGER), expires_at FROM kv WHERE key = ?`, key,
	).Scan(&current, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current, expiresAt = 0, 0
	case err != nil:
		return 0, fmt.Errorf("incr %s: %w", key, err)
	case expiresAt != 0 && expiresAt <= nowUnix():
		current, expiresAt = 0, 0
	}
	current++
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, fmt.Sprintf("%d", current), expiresAt,
	); err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return current, nil
}

func (s *SQLStore) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := s.Get(ctx, key); err == nil {
		return true, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return false, err
	}
	n, err := s.LLen(ctx, key)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) RPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	defer tx.Rollback()

	if expired, err := s.listExpired(ctx, tx, key); err != nil {
		return err
	} else if expired {
		if err := s.dropList(ctx, tx, key); err != nil {
			return err
		}
	}
	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(pos) + 1, 0) FROM kv_list WHERE key = ?`, key,
	).Scan(&next); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	for i, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_list (key, pos, value) VALUES (?, ?, ?)`,
			key, next+int64(i), v,
		); err != nil {
			return fmt.Errorf("rpush %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	items, err := s.listItems(ctx, key)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	n := int64(len(items))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	return items[start : stop+1], nil
}

func (s *SQLStore) LSet(ctx context.Context, key string, index int64, value string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE kv_list SET value = ? WHERE key = ? AND pos = (
			SELECT pos FROM kv_list WHERE key = ? ORDER BY pos LIMIT 1 OFFSET ?
		)`,
		value, key, key, index,
	)
	if err != nil {
		return fmt.Errorf("lset %s[%d]: %w", key, index, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lset %s[%d]: %w", key, index, repo.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) LRem(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_list WHERE key = ? AND value = ?`, key, value,
	); err != nil {
		return fmt.Errorf("lrem %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) LLen(ctx context.Context, key string) (int64, error) {
	items, err := s.listItems(ctx, key)
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

func (s *SQLStore) Drain(ctx context.Context, key string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("drain %s: %w", key, err)
	}
	defer tx.Rollback()

	if expired, err := s.listExpired(ctx, tx, key); err != nil {
		return nil, err
	} else if expired {
		if err := s.dropList(ctx, tx, key); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT value FROM kv_list WHERE key = ? ORDER BY pos`, key,
	)
	if err != nil {
		return nil, fmt.Errorf("drain %s: %w", key, err)
	}
	var items []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("drain %s: %w", key, err)
		}
		items = append(items, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("drain %s: %w", key, err)
	}
	if err := s.dropList(ctx, tx, key); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("drain %s: %w", key, err)
	}
	return items, nil
}

// PurgeExpired deletes expired rows and orphaned list metadata.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	now := nowUnix()
	var purged int64
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at != 0 AND expires_at <= ?`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("purge kv: %w", err)
	}
	n, _ := res.RowsAffected()
	purged += n

	res, err = s.db.ExecContext(ctx,
		`DELETE FROM kv_list WHERE key IN (
			SELECT key FROM kv_list_meta WHERE expires_at != 0 AND expires_at <= ?
		)`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("purge lists: %w", err)
	}
	n, _ = res.RowsAffected()
	purged += n

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_list_meta WHERE expires_at != 0 AND expires_at <= ?`, now,
	); err != nil {
		return 0, fmt.Errorf("purge list meta: %w", err)
	}
	return purged, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) listExpired(ctx context.Context, q querier, key string) (bool, error) {
	var expiresAt int64
	err := q.QueryRowContext(ctx,
		`SELECT expires_at FROM kv_list_meta WHERE key = ?`, key,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("list meta %s: %w", key, err)
	}
	return expiresAt != 0 && expiresAt <= nowUnix(), nil
}

func (s *SQLStore) dropList(ctx context.Context, tx *sql.Tx, key string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM kv_list WHERE key = ?`, key); err != nil {
		return fmt.Errorf("drop list %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kv_list_meta WHERE key = ?`, key); err != nil {
		return fmt.Errorf("drop list meta %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) listItems(ctx context.Context, key string) ([]string, error) {
	expired, err := s.listExpired(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM kv_list WHERE key = ? ORDER BY pos`, key,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("list %s: %w", key, err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}
	return items, nil
}
