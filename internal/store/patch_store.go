package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"blang-tool/internal/patch"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const patchTable = "blang_patches"

const schemaSQL = `CREATE TABLE IF NOT EXISTS blang_patches (
	language   TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	text       TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (language, name)
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type key struct {
	language string
	name     string
}

// PatchStore keeps per-language patches in PostgreSQL with an in-memory read cache.
type PatchStore struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[key]string
}

// NewPatchStore creates a store backed by pool.
func NewPatchStore(pool *pgxpool.Pool) *PatchStore {
	return &PatchStore{
		pool:   pool,
		memory: make(map[key]string),
	}
}

// EnsureSchema creates the patch table if needed.
func (s *PatchStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create %s: %w", patchTable, err)
	}
	log.Info().Msg("Patch store schema ensured")
	return nil
}

// Push upserts every entry of p for language in one transaction.
func (s *PatchStore) Push(ctx context.Context, language string, p patch.Patch) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin push: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range p.Strings {
		sqlStr, args, err := upsertQuery(language, e)
		if err != nil {
			return 0, fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit push: %w", err)
	}

	s.mu.Lock()
	for _, e := range p.Strings {
		s.memory[key{language, e.Name}] = e.Text
	}
	s.mu.Unlock()

	log.Info().Str("language", language).Int("strings", len(p.Strings)).Msg("Pushed patch")
	return len(p.Strings), nil
}

// Pull returns the stored patch for language ordered by name.
func (s *PatchStore) Pull(ctx context.Context, language string) (patch.Patch, error) {
	sqlStr, args, err := pullQuery(language)
	if err != nil {
		return patch.Patch{}, fmt.Errorf("build pull: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return patch.Patch{}, fmt.Errorf("query %s patch: %w", language, err)
	}
	defer rows.Close()

	out := patch.Patch{Strings: []patch.Entry{}}
	for rows.Next() {
		var e patch.Entry
		if err := rows.Scan(&e.Name, &e.Text); err != nil {
			return patch.Patch{}, fmt.Errorf("scan patch row: %w", err)
		}
		out.Strings = append(out.Strings, e)
	}
	if err := rows.Err(); err != nil {
		return patch.Patch{}, fmt.Errorf("read %s patch: %w", language, err)
	}

	s.mu.Lock()
	for _, e := range out.Strings {
		s.memory[key{language, e.Name}] = e.Text
	}
	s.mu.Unlock()

	log.Info().Str("language", language).Int("strings", len(out.Strings)).Msg("Pulled patch")
	return out, nil
}

// Get returns the stored text of one string. Returns empty string and false if not found.
func (s *PatchStore) Get(ctx context.Context, language, name string) (string, bool) {
	k := key{language, name}

	s.mu.RLock()
	if v, ok := s.memory[k]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	sqlStr, args, err := getQuery(language, name)
	if err != nil {
		return "", false
	}

	var text string
	if err := s.pool.QueryRow(ctx, sqlStr, args...).Scan(&text); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Err(err).Str("language", language).Str("name", name).Msg("Patch lookup failed")
		}
		return "", false
	}

	s.mu.Lock()
	s.memory[k] = text
	s.mu.Unlock()

	return text, true
}

func upsertQuery(language string, e patch.Entry) (string, []any, error) {
	return psql.Insert(patchTable).
		Columns("language", "name", "text", "updated_at").
		Values(language, e.Name, e.Text, sq.Expr("now()")).
		Suffix("ON CONFLICT (language, name) DO UPDATE SET text = EXCLUDED.text, updated_at = EXCLUDED.updated_at").
		ToSql()
}

func pullQuery(language string) (string, []any, error) {
	return psql.Select("name", "text").
		From(patchTable).
		Where(sq.Eq{"language": language}).
		OrderBy("name").
		ToSql()
}

func getQuery(language, name string) (string, []any, error) {
	return psql.Select("text").
		From(patchTable).
		Where(sq.Eq{"language": language, "name": name}).
		Limit(1).
		ToSql()
}
