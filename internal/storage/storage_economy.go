package storage

import (
	"errors"
	"sort"
	"time"
)

// DailyCooldown is how long a daily claim blocks the next one.
const DailyCooldown = 24 * time.Hour

var (
	ErrInvalidAmount     = errors.New("amount must be a positive whole number")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyClaimed    = errors.New("daily reward already claimed")
)

type Account struct {
	UserID  string
	Balance int64
}

func (s *Storage) Balance(guildID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return 0, err
	}
	return record.Balances[userID], nil
}

// Transfer moves amount from one member to another atomically and returns
// the sender's new balance.
func (s *Storage) Transfer(guildID, fromID, toID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if fromID == toID {
		return 0, ErrSelfTransfer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return 0, err
	}
	if record.Balances[fromID] < amount {
		return record.Balances[fromID], ErrInsufficientFunds
	}
	record.Balances[fromID] -= amount
	record.Balances[toID] += amount
	s.ds.Add(guildID, record)
	return record.Balances[fromID], nil
}

// ClaimDaily credits amount once per DailyCooldown. On ErrAlreadyClaimed the
// returned time is when the next claim opens.
func (s *Storage) ClaimDaily(guildID, userID string, amount int64, now time.Time) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return 0, time.Time{}, err
	}
	if last, ok := record.DailyClaims[userID]; ok {
		if next := last.Add(DailyCooldown); now.Before(next) {
			return record.Balances[userID], next, ErrAlreadyClaimed
		}
	}
	record.DailyClaims[userID] = now
	record.Balances[userID] += amount
	s.ds.Add(guildID, record)
	return record.Balances[userID], now.Add(DailyCooldown), nil
}

// Leaderboard returns up to limit accounts with a positive balance, richest first.
func (s *Storage) Leaderboard(guildID string, limit int) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(record.Balances))
	for id, bal := range record.Balances {
		if bal > 0 {
			accounts = append(accounts, Account{UserID: id, Balance: bal})
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Balance != accounts[j].Balance {
			return accounts[i].Balance > accounts[j].Balance
		}
		return accounts[i].UserID < accounts[j].UserID
	})
	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// ClearExpiredCooldowns drops daily claims that no longer block anything.
func (s *Storage) ClearExpiredCooldowns(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for _, guildID := range s.guilds() {
		record, err := s.getOrCreateGuildRecord(guildID)
		if err != nil {
			return cleared, err
		}
		changed := false
		for userID, last := range record.DailyClaims {
			if !now.Before(last.Add(DailyCooldown)) {
				delete(record.DailyClaims, userID)
				changed = true
				cleared++
			}
		}
		if changed {
			s.ds.Add(guildID, record)
		}
	}
	return cleared, nil
}
