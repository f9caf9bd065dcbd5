package portal

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
)

var _ fiber.Storage = &SessionsRepository{}

// SessionsRepository persists fiber sessions in the sessions table
type SessionsRepository struct {
	db     bun.IDB
	now    Clock
	logger Logger

	mu   sync.Mutex
	stop context.CancelFunc
}

// NewSessionsRepository returns a fiber.Storage over db
func NewSessionsRepository(db bun.IDB) *SessionsRepository {
	return &SessionsRepository{
		db:     db,
		now:    time.Now,
		logger: defLogger{},
	}
}

// WithLogger sets the logger used by the expiry collector
func (r *SessionsRepository) WithLogger(logger Logger) *SessionsRepository {
	r.logger = normalizeLogger(logger)
	return r
}

// WithClock replaces the clock used to expire records
func (r *SessionsRepository) WithClock(clock Clock) *SessionsRepository {
	if clock != nil {
		r.now = clock
	}
	return r
}

// Get returns nil without error for missing or expired keys
func (r *SessionsRepository) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	rec := new(SessionRecord)
	err := r.db.NewSelect().
		Model(rec).
		Where("?TableAlias.id = ?", key).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapStoreError(err, "sessions get")
	}

	if rec.Expired(r.now()) {
		return nil, nil
	}
	return rec.Data, nil
}

// Set stores val under key. A zero exp never expires.
func (r *SessionsRepository) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	rec := &SessionRecord{
		ID:   key,
		Data: val,
	}

	if exp > 0 {
		rec.ExpiresAt = r.now().Add(exp).UnixNano()
	}

	_, err := r.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(context.Background())
	if err != nil {
		return WrapStoreError(err, "sessions set")
	}
	return nil
}

// Delete removes the record under key
func (r *SessionsRepository) Delete(key string) error {
	if key == "" {
		return nil
	}

	_, err := r.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("id = ?", key).
		Exec(context.Background())
	if err != nil {
		return WrapStoreError(err, "sessions delete")
	}
	return nil
}

// Reset removes every session
func (r *SessionsRepository) Reset() error {
	_, err := r.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("1 = 1").
		Exec(context.Background())
	if err != nil {
		return WrapStoreError(err, "sessions reset")
	}
	return nil
}

// Close stops the expiration sweeper. The database is owned by the
// caller and stays open.
func (r *SessionsRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	return nil
}

// DeleteExpired removes records past their expiration
func (r *SessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("expires_at > 0").
		Where("expires_at <= ?", r.now().UnixNano()).
		Exec(ctx)
	if err != nil {
		return 0, WrapStoreError(err, "sessions delete expired")
	}
	return res.RowsAffected()
}

// StartGC sweeps expired records every interval until ctx is done or
// Close is called.
func (r *SessionsRepository) StartGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	r.mu.Lock()
	if r.stop != nil {
		r.stop()
	}
	ctx, r.stop = context.WithCancel(ctx)
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := r.DeleteExpired(ctx)
				if err != nil {
					r.logger.Error("session gc", "error", err)
					continue
				}
				if n > 0 {
					r.logger.Debug("session gc removed expired sessions", "count", n)
				}
			}
		}
	}()
}
