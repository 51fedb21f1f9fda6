package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/voxpense/pkg/api"
)

func write(t *testing.T, path string, expenses ...*api.Expense) []string {
	t.Helper()
	w, err := New(context.Background(), Config{Path: path, FlushInterval: time.Hour}, nil)
	require.NoError(t, err)

	in := make(chan *api.Expense, len(expenses))
	for _, e := range expenses {
		in <- e
	}
	close(in)
	acks := make(chan string, len(expenses))
	require.NoError(t, w.Write(context.Background(), in, acks))
	close(acks)

	var got []string
	for a := range acks {
		got = append(got, a)
	}
	return got
}

func TestWriter_UpsertsByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "expenses.db")
	e := &api.Expense{
		ID:         uuid.New(),
		Amount:     decimal.RequireFromString("150.25"),
		Currency:   "AED",
		Category:   "Grocery",
		Date:       time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
		Confidence: 0.7,
		Transcript: "I paid 150.25 AED for groceries yesterday",
		Source:     "inbox",
		Ack:        "one",
	}
	other := &api.Expense{ID: uuid.New(), Amount: decimal.NewFromInt(20), Currency: "INR", Category: "Food & Dining", Ack: "two"}

	assert.Equal(t, []string{"one", "two"}, write(t, path, e, other))

	updated := *e
	updated.Merchant = "Carrefour"
	updated.Ack = "three"
	assert.Equal(t, []string{"three"}, write(t, path, &updated))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM expenses`).Scan(&count))
	assert.Equal(t, 2, count)

	var amount, merchant, spentOn string
	require.NoError(t, db.QueryRow(
		`SELECT amount, merchant, spent_on FROM expenses WHERE id = ?`, e.ID.String(),
	).Scan(&amount, &merchant, &spentOn))
	assert.Equal(t, "150.25", amount)
	assert.Equal(t, "Carrefour", merchant)
	assert.Equal(t, "2024-03-12", spentOn)
}
