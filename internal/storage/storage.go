package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	st "server-tags/internal/storagetypes"

	"github.com/keshon/datastore"
)

const commandHistoryLimit int = 20

type Storage struct {
	ds *datastore.DataStore

	// mu serialises read-modify-write cycles on guild records.
	mu sync.Mutex
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

// update loads the guild record, applies fn and stores the result unless fn
// fails.
func (s *Storage) update(guildID string, fn func(*st.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	if err := fn(record); err != nil {
		return err
	}
	s.ds.Add(guildID, record)
	return nil
}

// view loads the guild record for reading.
func (s *Storage) view(guildID string) (*st.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateGuildRecord(guildID)
}

// getOrCreateGuildRecord returns a copy of the guild's record, or a fresh
// unsaved one for an unknown guild. Callers mutating it must Add it back.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*st.Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		return &st.Record{
			Tags:            map[string]st.Tag{},
			Greetings:       map[st.GreetingKind]st.Greeting{},
			CommandsHistory: []st.CommandHistory{},
		}, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record st.Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}

	if record.Tags == nil {
		record.Tags = map[string]st.Tag{}
	}
	if record.Greetings == nil {
		record.Greetings = map[st.GreetingKind]st.Greeting{}
	}
	if len(record.CommandsHistory) > commandHistoryLimit {
		record.CommandsHistory = record.CommandsHistory[len(record.CommandsHistory)-commandHistoryLimit:]
	}

	return &record, nil
}

// GetGuildRecord returns a copy of everything stored for the guild.
func (s *Storage) GetGuildRecord(guildID string) (*st.Record, error) {
	return s.view(guildID)
}
