package database

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Backoff ---

func TestBackoff_WithinJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := backoffBase << attempt
		lo := time.Duration(float64(base) * (1 - backoffJitter))
		hi := time.Duration(float64(base) * (1 + backoffJitter))
		for i := 0; i < 20; i++ {
			d := backoff(attempt)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := retry(context.Background(), testLogger(), "op", func() (bool, error) {
		calls++
		return false, errors.New("syntax error")
	})
	require.EqualError(t, err, "syntax error")
	assert.Equal(t, 1, calls)
}

func TestRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, testLogger(), "op", func() (bool, error) {
		return true, errors.New("connection refused")
	})
	require.ErrorIs(t, err, context.Canceled)
}

// --- Connection errors ---

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"refused text", errors.New("dial tcp 127.0.0.1:5432: connection refused"), true},
		{"sql error", &pgconn.PgError{Code: "42601", Message: "syntax error"}, false},
		{"other", errors.New("duplicate key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(tt.err))
		})
	}
}

// --- Migrations ---

func TestRunMigrations_AppliesPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	migrations := fstest.MapFS{
		"002_add_index.up.sql":                  {Data: []byte("CREATE INDEX contact_created ON contact_submissions (created_at)")},
		"001_create_contact_submissions.up.sql": {Data: []byte("CREATE TABLE contact_submissions (id UUID PRIMARY KEY)")},
		"001_create_contact_submissions.down.sql": {Data: []byte("DROP TABLE contact_submissions")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_create_contact_submissions.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("002_add_index.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX contact_created").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_add_index.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, migrations, testLogger()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	migrations := fstest.MapFS{
		"001_bad.up.sql": {Data: []byte("CREATE TABLEX nope")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_bad.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLEX").WillReturnError(&pgconn.PgError{Code: "42601", Message: "syntax error"})
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, migrations, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_bad.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Redis ---

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	client, err := NewRedisClient(context.Background(), RedisConfig{Host: host, Port: p}, testLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "storefront", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/storefront?sslmode=disable", cfg.DSN())
}

// --- Pool metrics ---

type fakeStats struct{}

func (fakeStats) AcquiredConns() int32     { return 2 }
func (fakeStats) IdleConns() int32         { return 3 }
func (fakeStats) TotalConns() int32        { return 5 }
func (fakeStats) MaxConns() int32          { return 10 }
func (fakeStats) AcquireCount() int64      { return 42 }
func (fakeStats) EmptyAcquireCount() int64 { return 1 }

func TestPoolCollector(t *testing.T) {
	c := newPoolCollector(func() poolStats { return fakeStats{} })
	assert.Equal(t, 6, testutil.CollectAndCount(c))
}

// --- Query tracing ---

func TestTraceQuery_LogsSlowStatements(t *testing.T) {
	var buf bytes.Buffer
	SetSlowQueryLogging(time.Nanosecond, slog.New(slog.NewJSONHandler(&buf, nil)))
	defer SetSlowQueryLogging(0, nil)

	_, end := TraceQuery(context.Background(), "InsertContact", "INSERT INTO contact_submissions")
	time.Sleep(time.Millisecond)
	end(nil)

	assert.Contains(t, buf.String(), `"operation":"InsertContact"`)
}

func TestTraceQuery_SlowLoggingDisabled(t *testing.T) {
	SetSlowQueryLogging(0, nil)
	_, end := TraceQuery(context.Background(), "Ping", "SELECT 1")
	assert.NotPanics(t, func() { end(errors.New("boom")) })
}
