package composables

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/loophq/loop360/pkg/configuration"
	"github.com/loophq/loop360/pkg/constants"
)

// InTenantTxWithRetry behaves like InTenantTx but restarts the whole
// transaction body on transient database failures (serialization conflicts,
// deadlocks, dropped connections). The body runs at-most MaxAttempts times
// and therefore must be free of external side effects.
//
// When the context already carries a transaction the body joins it and no
// retrying happens; restarting someone else's transaction is not ours to do.
func InTenantTxWithRetry(ctx context.Context, fn func(context.Context) error) error {
	if existing, ok := ctx.Value(constants.TxKey).(pgx.Tx); ok && existing != nil {
		return InTenantTx(ctx, fn)
	}

	conf := configuration.Use().TxRetry
	r := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec

	var err error
	for attempt := 1; attempt <= conf.MaxAttempts; attempt++ {
		err = InTenantTx(ctx, fn)
		if err == nil || !IsTransientDBError(err) {
			return err
		}
		if attempt == conf.MaxAttempts {
			break
		}

		delay := txBackoff(attempt, conf.MaxBackoff) + txJitter(r, conf.MaxJitter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// IsTransientDBError reports whether retrying a failed transaction from
// scratch has a chance of succeeding.
func IsTransientDBError(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
		// Class 08: connection exceptions.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return true
		}
	}
	return false
}

func txBackoff(attempts int, maxBackoff time.Duration) time.Duration {
	if attempts <= 0 {
		return 0
	}
	// 100ms * 2^(attempts-1)
	ms := math.Pow(2, float64(attempts-1)) * 100
	d := time.Duration(ms * float64(time.Millisecond))
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func txJitter(r *rand.Rand, maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 || r == nil {
		return 0
	}
	return time.Duration(r.Int63n(int64(maxJitter) + 1))
}
