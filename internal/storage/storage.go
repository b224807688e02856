// /internal/storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/keshon/datastore"
)

const (
	commandHistoryLimit int = 20
	guildIndexKey           = "_guilds"
)

// Storage keeps per-guild records in a JSON datastore. Every read-modify-write
// runs under mu so concurrent commands never lose updates.
type Storage struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

type Record struct {
	Prefix              string                 `json:"prefix,omitempty"`
	Balances            map[string]int64       `json:"balances"`
	DailyClaims         map[string]time.Time   `json:"daily_claims"`
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
	CommandsDisabled    []string               `json:"cmd_disabled"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Helper function to get or create a Record for a guild. Callers hold mu.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		newRecord := &Record{
			Balances:            map[string]int64{},
			DailyClaims:         map[string]time.Time{},
			CommandsHistoryList: []CommandHistoryRecord{},
		}
		s.ds.Add(guildID, newRecord)
		s.indexGuild(guildID)
		return newRecord, nil
	}

	var record Record
	if err := roundTrip(data, &record); err != nil {
		return nil, fmt.Errorf("error decoding record for guild %s: %w", guildID, err)
	}

	if record.Balances == nil {
		record.Balances = map[string]int64{}
	}
	if record.DailyClaims == nil {
		record.DailyClaims = map[string]time.Time{}
	}
	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}

	return &record, nil
}

func (s *Storage) indexGuild(guildID string) {
	guilds := s.guilds()
	if slices.Contains(guilds, guildID) {
		return
	}
	s.ds.Add(guildIndexKey, append(guilds, guildID))
}

func (s *Storage) guilds() []string {
	data, ok := s.ds.Get(guildIndexKey)
	if !ok {
		return nil
	}
	var ids []string
	if err := roundTrip(data, &ids); err != nil {
		return nil
	}
	return ids
}

// roundTrip decodes values that came back from the datastore either as the
// stored Go value or as generic JSON after a reload.
func roundTrip(data any, into any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshalling data: %w", err)
	}
	if err := json.Unmarshal(jsonData, into); err != nil {
		return fmt.Errorf("error unmarshalling to %T: %w", into, err)
	}
	return nil
}

// GuildPrefix returns the guild's prefix override, or "" when unset.
func (s *Storage) GuildPrefix(guildID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return "", err
	}
	return record.Prefix, nil
}

// SetGuildPrefix stores a prefix override; an empty prefix resets to the default.
func (s *Storage) SetGuildPrefix(guildID, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	record.Prefix = prefix
	s.ds.Add(guildID, record)
	return nil
}

// AppendCommandToHistory appends a command history record for a guild
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.CommandsHistoryList = append(record.CommandsHistoryList, command)
	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}
	s.ds.Add(guildID, record)
	return nil
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	return record.CommandsHistoryList, nil
}
