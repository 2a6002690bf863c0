package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	st "server-tags/internal/storagetypes"
)

var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagExists      = errors.New("tag already exists")
	ErrInvalidTagName = errors.New("invalid tag name")
)

const (
	MaxTagNameLength    = 32
	MaxTagContentLength = 4000
)

// NormalizeTagName lowercases and validates a tag name. Names are a single
// word so they can be invoked as "<prefix><name> args".
func NormalizeTagName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || len([]rune(name)) > MaxTagNameLength {
		return "", fmt.Errorf("%w: must be 1-%d characters", ErrInvalidTagName, MaxTagNameLength)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: must not contain spaces", ErrInvalidTagName)
	}
	return name, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("tag content is empty")
	}
	if len(content) > MaxTagContentLength {
		return fmt.Errorf("tag content is longer than %d bytes", MaxTagContentLength)
	}
	return nil
}

func (s *Storage) AddTag(guildID, name, content, authorID string) (st.Tag, error) {
	name, err := NormalizeTagName(name)
	if err != nil {
		return st.Tag{}, err
	}
	if err := validateContent(content); err != nil {
		return st.Tag{}, err
	}

	var tag st.Tag
	err = s.update(guildID, func(r *st.Record) error {
		if _, exists := r.Tags[name]; exists {
			return fmt.Errorf("%w: %s", ErrTagExists, name)
		}
		now := time.Now().UTC()
		tag = st.Tag{
			Name:      name,
			Content:   content,
			AuthorID:  authorID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.Tags[name] = tag
		return nil
	})
	return tag, err
}

func (s *Storage) EditTag(guildID, name, content string) (st.Tag, error) {
	name, err := NormalizeTagName(name)
	if err != nil {
		return st.Tag{}, err
	}
	if err := validateContent(content); err != nil {
		return st.Tag{}, err
	}

	var tag st.Tag
	err = s.update(guildID, func(r *st.Record) error {
		existing, ok := r.Tags[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTagNotFound, name)
		}
		existing.Content = content
		existing.UpdatedAt = time.Now().UTC()
		r.Tags[name] = existing
		tag = existing
		return nil
	})
	return tag, err
}

func (s *Storage) RemoveTag(guildID, name string) error {
	name, err := NormalizeTagName(name)
	if err != nil {
		return err
	}
	return s.update(guildID, func(r *st.Record) error {
		if _, ok := r.Tags[name]; !ok {
			return fmt.Errorf("%w: %s", ErrTagNotFound, name)
		}
		delete(r.Tags, name)
		return nil
	})
}

func (s *Storage) GetTag(guildID, name string) (st.Tag, error) {
	name, err := NormalizeTagName(name)
	if err != nil {
		return st.Tag{}, err
	}
	record, err := s.view(guildID)
	if err != nil {
		return st.Tag{}, err
	}
	tag, ok := record.Tags[name]
	if !ok {
		return st.Tag{}, fmt.Errorf("%w: %s", ErrTagNotFound, name)
	}
	return tag, nil
}

// ListTags returns the guild's tags sorted by name.
func (s *Storage) ListTags(guildID string) ([]st.Tag, error) {
	record, err := s.view(guildID)
	if err != nil {
		return nil, err
	}
	tags := make([]st.Tag, 0, len(record.Tags))
	for _, t := range record.Tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// IncrementTagUses bumps the usage counter and returns the new value.
func (s *Storage) IncrementTagUses(guildID, name string) (int64, error) {
	name, err := NormalizeTagName(name)
	if err != nil {
		return 0, err
	}
	var uses int64
	err = s.update(guildID, func(r *st.Record) error {
		tag, ok := r.Tags[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTagNotFound, name)
		}
		tag.Uses++
		r.Tags[name] = tag
		uses = tag.Uses
		return nil
	})
	return uses, err
}
