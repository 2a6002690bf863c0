package storage

import (
	"fmt"
	"strings"

	st "server-tags/internal/storagetypes"
)

const maxPrefixLength = 5

func (s *Storage) SetPrefix(guildID, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || len(prefix) > maxPrefixLength || strings.ContainsAny(prefix, " \t\n") {
		return fmt.Errorf("prefix must be 1-%d characters without spaces", maxPrefixLength)
	}
	return s.update(guildID, func(r *st.Record) error {
		r.Prefix = prefix
		return nil
	})
}

// GetPrefix returns the guild's prefix, or fallback when none is set.
func (s *Storage) GetPrefix(guildID, fallback string) (string, error) {
	record, err := s.view(guildID)
	if err != nil {
		return fallback, err
	}
	if record.Prefix == "" {
		return fallback, nil
	}
	return record.Prefix, nil
}
