package assistant

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ArionMiles/voxpense/pkg/voice"
)

func TestStore_Lifecycle(t *testing.T) {
	now := time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)
	s := newStore(time.Minute, func() time.Time { return now })
	id := uuid.New()

	s.put(id, voice.ParsedExpense{Transcript: "I spent 50"}, StatusPending)
	assert.Equal(t, 1, s.purge())

	assert.False(t, s.transition(id, StatusSubmitted, StatusSaved), "wrong source status")
	assert.True(t, s.submit(id, voice.ParsedExpense{Merchant: "Zara"}))
	assert.False(t, s.remove(id), "only pending entries can be removed")
	assert.True(t, s.transition(id, StatusSubmitted, StatusSaved))

	e, ok := s.get(id)
	assert.True(t, ok)
	assert.Equal(t, StatusSaved, e.status)
	assert.Equal(t, "Zara", e.parsed.Merchant)
	assert.Equal(t, 0, s.purge())
}

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)
	s := newStore(time.Minute, func() time.Time { return now })
	expired, fresh := uuid.New(), uuid.New()

	s.put(expired, voice.ParsedExpense{}, StatusPending)
	now = now.Add(30 * time.Second)
	s.put(fresh, voice.ParsedExpense{}, StatusPending)
	now = now.Add(30 * time.Second)

	_, ok := s.get(expired)
	assert.False(t, ok)
	assert.False(t, s.submit(expired, voice.ParsedExpense{}))
	assert.Equal(t, 1, s.purge())

	now = now.Add(time.Minute)
	assert.Equal(t, 0, s.purge())
	assert.Empty(t, s.entries)
}
