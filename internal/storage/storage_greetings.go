package storage

import (
	"fmt"
	"time"

	st "server-tags/internal/storagetypes"
)

func validKind(kind st.GreetingKind) error {
	switch kind {
	case st.GreetingWelcome, st.GreetingFarewell:
		return nil
	}
	return fmt.Errorf("unknown greeting kind %q", kind)
}

func (s *Storage) SetGreeting(guildID string, kind st.GreetingKind, channelID, script string) error {
	if err := validKind(kind); err != nil {
		return err
	}
	if err := validateContent(script); err != nil {
		return err
	}
	return s.update(guildID, func(r *st.Record) error {
		r.Greetings[kind] = st.Greeting{
			ChannelID: channelID,
			Script:    script,
			UpdatedAt: time.Now().UTC(),
		}
		return nil
	})
}

// GetGreeting returns the configured greeting; ok is false when none is set.
func (s *Storage) GetGreeting(guildID string, kind st.GreetingKind) (st.Greeting, bool, error) {
	record, err := s.view(guildID)
	if err != nil {
		return st.Greeting{}, false, err
	}
	g, ok := record.Greetings[kind]
	return g, ok, nil
}

func (s *Storage) GetGreetings(guildID string) (map[st.GreetingKind]st.Greeting, error) {
	record, err := s.view(guildID)
	if err != nil {
		return nil, err
	}
	return record.Greetings, nil
}

func (s *Storage) ClearGreeting(guildID string, kind st.GreetingKind) error {
	if err := validKind(kind); err != nil {
		return err
	}
	return s.update(guildID, func(r *st.Record) error {
		delete(r.Greetings, kind)
		return nil
	})
}
