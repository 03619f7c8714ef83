package data

import (
	"sync"

	"gorm.io/gorm"
)

// Setting is one row of the settings table.
type Setting struct {
	ID     uint16 `gorm:"primaryKey"`
	Name   string `gorm:"size:64;uniqueIndex;not null"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null;default:1"`
}

// Settings is an in-memory copy of the active settings rows.
type Settings struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSettings builds a cache from literal values.
func NewSettings(values map[string]string) *Settings {
	s := &Settings{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// LoadSettings loads all active settings from the database.
func LoadSettings(db *gorm.DB) (*Settings, error) {
	var rows []Setting
	if err := db.Where("active = ?", 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Name] = r.Value
	}
	return NewSettings(values), nil
}

// GetSetting returns the cached value, or "" when absent. A nil cache is empty.
func (s *Settings) GetSetting(name string) string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name]
}
