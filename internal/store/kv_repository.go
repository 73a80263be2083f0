package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-chat-sync/internal/logger"
	"github.com/MKhiriev/go-chat-sync/internal/utils"
)

// kvRepository is the SQL-backed implementation of [KeyValueStorage]. One
// implementation serves both backends; the only per-driver difference is the
// placeholder format used by the squirrel statement builder.
type kvRepository struct {
	*DB
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// NewKeyValueRepository constructs a [KeyValueStorage] over the given
// database connection. The placeholder format is derived from the connection
// driver ($1-style for pgx, ?-style for sqlite3).
func NewKeyValueRepository(db *DB, log *logger.Logger) KeyValueStorage {
	return &kvRepository{
		DB:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholderFormat(db.driver)).RunWith(db.DB),
		logger:  log,
	}
}

func placeholderFormat(driver string) sq.PlaceholderFormat {
	if driver == "pgx" {
		return sq.Dollar
	}
	return sq.Question
}

func (r *kvRepository) Get(ctx context.Context, key string) ([]byte, error) {
	item, err := r.GetWithMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (r *kvRepository) GetWithMetadata(ctx context.Context, key string) (ValueWithMetadata, error) {
	log := opLogger(ctx)

	row := r.builder.
		Select("value", "version").
		From("kv_entries").
		Where(sq.Eq{"key": key}).
		QueryRowContext(ctx)

	var item ValueWithMetadata
	err := row.Scan(&item.Value, &item.Metadata.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return ValueWithMetadata{}, fmt.Errorf("get %q: %w", key, ErrKeyNotFound)
	}
	if err != nil {
		log.Err(err).
			Str("func", "kvRepository.GetWithMetadata").
			Str("key", key).
			Msg("failed to query key-value entry")
		return ValueWithMetadata{}, fmt.Errorf("failed to query entry (key=%s): %w", key, err)
	}

	return item, nil
}

func (r *kvRepository) Set(ctx context.Context, key string, value []byte, version int64) error {
	log := opLogger(ctx)

	err := r.retryableExec(func() error {
		_, execErr := r.builder.
			Insert("kv_entries").
			Columns("key", "value", "version", "updated_at").
			Values(key, value, version, time.Now().UTC()).
			Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = excluded.version, updated_at = excluded.updated_at").
			ExecContext(ctx)
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "kvRepository.Set").
			Str("key", key).
			Int64("version", version).
			Msg("failed to execute upsert for key-value entry")
		return fmt.Errorf("failed to save entry (key=%s): %w", key, err)
	}

	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	log := opLogger(ctx)

	// Idempotent: zero affected rows is not an error.
	err := r.retryableExec(func() error {
		_, execErr := r.builder.
			Delete("kv_entries").
			Where(sq.Eq{"key": key}).
			ExecContext(ctx)
		return execErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "kvRepository.Delete").
			Str("key", key).
			Msg("failed to delete key-value entry")
		return fmt.Errorf("failed to delete entry (key=%s): %w", key, err)
	}

	return nil
}

func (r *kvRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	log := opLogger(ctx)

	rows, err := r.builder.
		Select("key").
		From("kv_entries").
		Where(sq.Expr(`key LIKE ? ESCAPE '\'`, escapeLikePattern(prefix)+"%")).
		OrderBy("key").
		QueryContext(ctx)
	if err != nil {
		log.Err(err).
			Str("func", "kvRepository.Keys").
			Str("prefix", prefix).
			Msg("failed to query keys by prefix")
		return nil, fmt.Errorf("failed to query keys (prefix=%s): %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate key rows: %w", err)
	}

	return keys, nil
}

// opLogger returns the context logger, enriched with the sync subject when
// the caller attached one via [utils.SubjectCtxKey].
func opLogger(ctx context.Context) *logger.Logger {
	log := logger.FromContext(ctx)
	if subject, ok := utils.GetSubjectFromContext(ctx); ok {
		return &logger.Logger{Logger: log.With().Str("subject", subject).Logger()}
	}
	return log
}

// retryableExec runs fn once and repeats it a single time when the backend
// classifies the failure as transient. The sqlite backend carries no
// classifier, so its errors surface immediately.
func (r *kvRepository) retryableExec(fn func() error) error {
	err := fn()
	if err == nil || r.errorClassificator == nil {
		return err
	}
	if r.errorClassificator.Classify(err) != Retryable {
		return err
	}
	return fn()
}

// escapeLikePattern escapes the LIKE metacharacters % and _ so that a key
// prefix is matched literally.
func escapeLikePattern(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
