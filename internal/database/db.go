package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapPostgresError translates driver errors into model sentinels. Anything
// that means the database could not answer becomes ErrStorageUnavailable.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return models.ErrConflict
		case pgErr.Code == "23503", pgErr.Code == "23502", pgErr.Code == "23514": // fk, not null, check
			return models.ErrBadRequest
		case pgErr.Code == "2201B": // invalid_regular_expression
			return fmt.Errorf("%w: %s", models.ErrInvalidPattern, pgErr.Message)
		case pgErr.Code == "57014", pgErr.Code == "53300", pgErr.Code == "57P01": // query_canceled, too_many_connections, admin_shutdown
			return fmt.Errorf("%w: %s", models.ErrStorageUnavailable, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "08"): // connection_exception class
			return fmt.Errorf("%w: %s", models.ErrStorageUnavailable, pgErr.Message)
		}
		return err
	}

	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// WithReadSnapshot runs fn in a read-only REPEATABLE READ transaction so that
// every statement inside sees the same snapshot.
func (db *DB) WithReadSnapshot(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return MapPostgresError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = MapPostgresError(tx.Commit(ctx))
		}
	}()

	err = fn(tx)
	return err
}
