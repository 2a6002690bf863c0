package storage

import st "server-tags/internal/storagetypes"

// AppendCommandHistory records a command execution, keeping the most recent
// entries only.
func (s *Storage) AppendCommandHistory(guildID string, entry st.CommandHistory) error {
	return s.update(guildID, func(r *st.Record) error {
		r.CommandsHistory = append(r.CommandsHistory, entry)
		if len(r.CommandsHistory) > commandHistoryLimit {
			r.CommandsHistory = r.CommandsHistory[len(r.CommandsHistory)-commandHistoryLimit:]
		}
		return nil
	})
}

func (s *Storage) GetCommandHistory(guildID string) ([]st.CommandHistory, error) {
	record, err := s.view(guildID)
	if err != nil {
		return nil, err
	}

	return record.CommandsHistory, nil
}
