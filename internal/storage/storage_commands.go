package storage

import "slices"

// DisableGroup turns off every command of a category in a guild.
func (s *Storage) DisableGroup(guildID, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	if slices.Contains(record.CommandsDisabled, group) {
		return nil
	}

	record.CommandsDisabled = append(record.CommandsDisabled, group)
	s.ds.Add(guildID, record)
	return nil
}

func (s *Storage) EnableGroup(guildID, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	updated := make([]string, 0, len(record.CommandsDisabled))
	for _, g := range record.CommandsDisabled {
		if g != group {
			updated = append(updated, g)
		}
	}
	record.CommandsDisabled = updated
	s.ds.Add(guildID, record)
	return nil
}

func (s *Storage) IsGroupDisabled(guildID, group string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return false, err
	}
	return slices.Contains(record.CommandsDisabled, group), nil
}

func (s *Storage) GetDisabledGroups(guildID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsDisabled, nil
}
