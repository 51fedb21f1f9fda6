package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/voxpense/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testConfig() Config {
	return Config{
		BatchSize:       10,
		FlushInterval:   time.Hour,
		ConnectAttempts: 2,
		ConnectDelay:    time.Millisecond,
	}
}

func testExpense(ack string) *api.Expense {
	return &api.Expense{
		ID:         uuid.New(),
		Amount:     decimal.RequireFromString("2000"),
		Currency:   "AED",
		Category:   "Grocery",
		Date:       time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
		Confidence: 0.9,
		Transcript: "I just spent two thousand dirhams on groceries",
		Source:     "inbox",
		Ack:        ack,
	}
}

func upsertArgs(e *api.Expense) []any {
	return []any{e.ID, e.Amount, e.Currency, e.Category, e.Merchant, e.Date, e.Confidence, e.NeedsConfirmation, e.Transcript, e.Source}
}

// TestNewWriter_ConnectionFailure tests that the writer returns an error when connection fails.
func TestNewWriter_ConnectionFailure(t *testing.T) {
	cfg := Config{
		Host:            "nonexistent-host.invalid",
		Database:        "voxpense",
		User:            "voxpense",
		Password:        "password",
		ConnectAttempts: 1,
	}

	_, err := New(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}

func TestNewWithPool_RetriesPingAndMigrates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	mock.ExpectPing()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS expenses").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	_, err = newWithPool(context.Background(), mock, testConfig(), testLogger())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPool_GivesUp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	mock.ExpectPing().WillReturnError(errors.New("still down"))

	_, err = newWithPool(context.Background(), mock, testConfig(), testLogger())
	assert.ErrorContains(t, err, "pinging database")
}

func TestWrite_UpsertsAndAcks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS expenses").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	w, err := newWithPool(context.Background(), mock, testConfig(), testLogger())
	require.NoError(t, err)

	first, second := testExpense("a"), testExpense("b")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO expenses").WithArgs(upsertArgs(first)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO expenses").WithArgs(upsertArgs(second)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	in := make(chan *api.Expense, 2)
	in <- first
	in <- second
	close(in)
	acks := make(chan string, 2)

	require.NoError(t, w.Write(context.Background(), in, acks))
	assert.Equal(t, "a", <-acks)
	assert.Equal(t, "b", <-acks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteBatch_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	w := &Writer{pool: mock, logger: testLogger()}
	e := testExpense("a")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO expenses").WithArgs(upsertArgs(e)...).WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err = w.writeBatch(context.Background(), []*api.Expense{e})
	assert.ErrorContains(t, err, "upserting expense")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfig_ConnString(t *testing.T) {
	cfg := Config{Host: "db", Database: "voxpense", User: "u", Password: "p"}
	cfg.setDefaults()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=voxpense sslmode=disable", cfg.ConnString())
}
