package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datastore.json")
	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestGuildPrefix(t *testing.T) {
	s, _ := newStore(t)

	prefix, err := s.GuildPrefix("g")
	require.NoError(t, err)
	assert.Empty(t, prefix)

	require.NoError(t, s.SetGuildPrefix("g", "!"))
	prefix, _ = s.GuildPrefix("g")
	assert.Equal(t, "!", prefix)

	other, _ := s.GuildPrefix("h")
	assert.Empty(t, other)
}

func TestCommandHistory_KeepsLatest(t *testing.T) {
	s, _ := newStore(t)
	for i := 0; i < commandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommandToHistory("g", CommandHistoryRecord{Command: fmt.Sprint(i)}))
	}
	history, err := s.FetchCommandHistory("g")
	require.NoError(t, err)
	require.Len(t, history, commandHistoryLimit)
	assert.Equal(t, "5", history[0].Command)
	assert.Equal(t, fmt.Sprint(commandHistoryLimit+4), history[len(history)-1].Command)
}

func TestClaimDailyAndTransfer(t *testing.T) {
	s, _ := newStore(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	bal, next, err := s.ClaimDaily("g", "a", 100, now)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
	assert.Equal(t, now.Add(DailyCooldown), next)

	_, next, err = s.ClaimDaily("g", "a", 100, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, now.Add(DailyCooldown), next)

	bal, err = s.Transfer("g", "a", "b", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), bal)
	got, _ := s.Balance("g", "b")
	assert.Equal(t, int64(30), got)

	_, err = s.Transfer("g", "a", "b", 71)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = s.Transfer("g", "a", "b", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = s.Transfer("g", "a", "a", 1)
	assert.ErrorIs(t, err, ErrSelfTransfer)

	bal, _, err = s.ClaimDaily("g", "a", 100, now.Add(DailyCooldown))
	require.NoError(t, err)
	assert.Equal(t, int64(170), bal)
}

func TestTransfer_ConcurrentKeepsTotal(t *testing.T) {
	s, _ := newStore(t)
	now := time.Now()
	_, _, err := s.ClaimDaily("g", "a", 100, now)
	require.NoError(t, err)
	_, _, err = s.ClaimDaily("g", "b", 100, now)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); s.Transfer("g", "a", "b", 3) }()
		go func() { defer wg.Done(); s.Transfer("g", "b", "a", 2) }()
	}
	wg.Wait()

	a, _ := s.Balance("g", "a")
	b, _ := s.Balance("g", "b")
	assert.Equal(t, int64(200), a+b)
	assert.GreaterOrEqual(t, a, int64(0))
	assert.GreaterOrEqual(t, b, int64(0))
}

func TestLeaderboard(t *testing.T) {
	s, _ := newStore(t)
	now := time.Now()
	for id, amount := range map[string]int64{"a": 10, "b": 50, "c": 50, "d": 5} {
		_, _, err := s.ClaimDaily("g", id, amount, now)
		require.NoError(t, err)
	}
	_, err := s.Transfer("g", "d", "a", 5)
	require.NoError(t, err)

	top, err := s.Leaderboard("g", 3)
	require.NoError(t, err)
	assert.Equal(t, []Account{{"b", 50}, {"c", 50}, {"a", 15}}, top)
}

func TestClearExpiredCooldowns(t *testing.T) {
	s, _ := newStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _, _ = s.ClaimDaily("g1", "old", 1, now)
	_, _, _ = s.ClaimDaily("g2", "fresh", 1, now.Add(20*time.Hour))

	n, err := s.ClearExpiredCooldowns(now.Add(DailyCooldown))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, _, err = s.ClaimDaily("g2", "fresh", 1, now.Add(DailyCooldown))
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	_, _, err = s.ClaimDaily("g1", "old", 1, now.Add(DailyCooldown))
	assert.NoError(t, err)
}

func TestReloadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SetGuildPrefix("g", "?"))
	_, _, err = s.ClaimDaily("g", "a", 42, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	prefix, err := reopened.GuildPrefix("g")
	require.NoError(t, err)
	assert.Equal(t, "?", prefix)
	bal, _ := reopened.Balance("g", "a")
	assert.Equal(t, int64(42), bal)
}

func TestGroups(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.DisableGroup("g", "Fun"))
	require.NoError(t, s.DisableGroup("g", "Fun"))
	require.NoError(t, s.DisableGroup("g", "Economy"))

	disabled, err := s.IsGroupDisabled("g", "Fun")
	require.NoError(t, err)
	assert.True(t, disabled)
	groups, _ := s.GetDisabledGroups("g")
	assert.Equal(t, []string{"Fun", "Economy"}, groups)

	require.NoError(t, s.EnableGroup("g", "Fun"))
	disabled, _ = s.IsGroupDisabled("g", "Fun")
	assert.False(t, disabled)
	disabled, _ = s.IsGroupDisabled("other", "Economy")
	assert.False(t, disabled)
}
