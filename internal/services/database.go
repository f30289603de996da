package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

// Database is satisfied by *pgxpool.Pool.
type Database interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05"
)

// Clock yields the current instant in the configured timezone.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	nowFn := c.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return nowFn().In(loc)
}

func (c Clock) today() string {
	return c.now().Format(dateLayout)
}

func (c Clock) clock() string {
	return c.now().Format(clockLayout)
}

func withTx(ctx context.Context, db Database, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
