package telegram

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	postgresConnectAttemptsDefault = 20
	postgresConnectDelayDefault    = 2 * time.Second

	pqInvalidCatalogName = "3D000"
	pqDuplicateDatabase  = "42P04"
)

type retryPolicy struct {
	attempts int
	delay    time.Duration
}

func (r retryPolicy) withDefaults() retryPolicy {
	if r.attempts <= 0 {
		r.attempts = postgresConnectAttemptsDefault
	}
	if r.delay <= 0 {
		r.delay = postgresConnectDelayDefault
	}
	return r
}

// openPostgresWithRetry pings until the server answers; a missing database is created once.
func openPostgresWithRetry(ctx context.Context, dsn string, retry retryPolicy) (*sql.DB, error) {
	retry = retry.withDefaults()

	var lastErr error
	created := false
	for attempt := 1; attempt <= retry.attempts; attempt++ {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				return db, nil
			}
			_ = db.Close()
		}
		lastErr = err
		if !created && isDatabaseMissingError(err) {
			if createErr := ensurePostgresDatabase(ctx, dsn); createErr == nil {
				created = true
				continue
			} else {
				lastErr = createErr
			}
		}
		zap.L().Debug("postgres not ready", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < retry.attempts {
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "postgres connect canceled")
			case <-time.After(retry.delay):
			}
		}
	}
	if lastErr == nil {
		lastErr = eris.New("postgres connection failed")
	}
	return nil, eris.Wrapf(lastErr, "postgres unreachable after %d attempts", retry.attempts)
}

// parseDSN key=value pairs of a URL or key/value DSN.
func parseDSN(dsn string) (map[string]string, error) {
	dsn = strings.TrimSpace(dsn)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return nil, eris.Wrap(err, "parse postgres url")
		}
		dsn = converted
	}
	values := make(map[string]string)
	for _, part := range strings.Fields(dsn) {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		values[strings.ToLower(strings.TrimSpace(key))] = strings.Trim(val, `"'`)
	}
	return values, nil
}

// buildDSN key/value DSN with stable key order
func buildDSN(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := values[k]
		if strings.ContainsAny(v, ` '\`) {
			v = "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

// ensurePostgresDatabase connects to the "postgres" maintenance database and creates the target one.
func ensurePostgresDatabase(ctx context.Context, dsn string) error {
	values, err := parseDSN(dsn)
	if err != nil {
		return err
	}
	dbName := values["dbname"]
	if dbName == "" || dbName == "postgres" {
		return eris.New("database name not found in dsn")
	}
	values["dbname"] = "postgres"

	db, err := sql.Open("postgres", buildDSN(values))
	if err != nil {
		return eris.Wrap(err, "open maintenance database")
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		if isDatabaseExistsError(err) {
			return nil
		}
		return eris.Wrapf(err, "create database %s", dbName)
	}
	zap.L().Info("postgres database created", zap.String("database", dbName))
	return nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isDatabaseMissingError(err error) bool {
	return err != nil && pqCode(err) == pqInvalidCatalogName
}

func isDatabaseExistsError(err error) bool {
	return err != nil && pqCode(err) == pqDuplicateDatabase
}
