// Package history persists the outcomes of resolved raid sessions. The
// live session store stays in memory; only terminal results are written.
package history

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/fireteam/internal/raid"
)

// Record is one resolved raid session.
type Record struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayID    string    `gorm:"size:32;index" json:"display_id"`
	ChannelID    string    `gorm:"size:32" json:"channel_id"`
	Activity     string    `gorm:"size:128;not null" json:"activity"`
	OrganizerID  string    `gorm:"size:32;not null;index" json:"organizer_id"`
	Participants string    `gorm:"type:text" json:"participants"` // space-joined user IDs
	RosterSize   int       `json:"roster_size"`
	Outcome      string    `gorm:"size:16;not null;index" json:"outcome"`
	Deadline     time.Time `json:"deadline"`
	CreatedAt    time.Time `json:"created_at"`  // when the session was created
	ResolvedAt   time.Time `json:"resolved_at"` // when the session left the store
}

// Store reads and writes raid records.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store and migrates the records table.
func NewStore(gdb *gorm.DB) (*Store, error) {
	if gdb == nil {
		return nil, fmt.Errorf("history: db is required")
	}
	if err := gdb.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: gdb}, nil
}

// RecordResolution implements raid.Recorder. Failures are logged, never
// returned; an unavailable history database must not affect resolution.
func (s *Store) RecordResolution(ctx context.Context, snap raid.Snapshot, outcome raid.Outcome) {
	rec := Record{
		DisplayID:    snap.ID,
		ChannelID:    snap.ChannelID,
		Activity:     snap.Activity,
		OrganizerID:  snap.OrganizerID,
		Participants: strings.Join(snap.Participants, " "),
		RosterSize:   len(snap.Participants),
		Outcome:      string(outcome),
		Deadline:     snap.Deadline,
		CreatedAt:    snap.CreatedAt,
		ResolvedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		log.Printf("history: record %s (%s): %v", snap.ID, outcome, err)
	}
}

// Recent returns the most recently resolved records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []Record
	if err := s.db.Order("resolved_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	return recs, nil
}

// ByOrganizer returns an organizer's resolved records, newest first.
func (s *Store) ByOrganizer(organizerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []Record
	if err := s.db.Where("organizer_id = ?", organizerID).
		Order("resolved_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("history: by organizer %s: %w", organizerID, err)
	}
	return recs, nil
}

// OutcomeCounts returns the number of records per outcome.
func (s *Store) OutcomeCounts() (map[string]int64, error) {
	type row struct {
		Outcome string
		N       int64
	}
	var rows []row
	if err := s.db.Model(&Record{}).
		Select("outcome, count(*) as n").
		Group("outcome").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("history: outcome counts: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Outcome] = r.N
	}
	return out, nil
}
