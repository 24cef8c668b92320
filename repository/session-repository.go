package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type RaidSession struct {
	Id         int            `gorm:"primaryKey"`
	SessionKey string         `gorm:"not null;uniqueIndex"`
	RaidId     int            `gorm:"not null"`
	Raid       *Raid          `gorm:"foreignKey:RaidId"`
	Year       int            `gorm:"not null"`
	Week       int            `gorm:"not null"`
	Notes      string         `gorm:"null"`
	WasCleared bool           `gorm:"not null"`
	Irrelevant bool           `gorm:"not null"`
	Parts      []*SessionPart `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
}

// SessionPart is one contiguous recording segment of a session. Raid nights
// interrupted by disconnects or breaks become multiple parts.
type SessionPart struct {
	Id           int       `gorm:"primaryKey"`
	SessionId    int       `gorm:"not null;uniqueIndex:idx_part_session_number"`
	PartNumber   int       `gorm:"not null;uniqueIndex:idx_part_session_number"`
	StartTime    time.Time `gorm:"not null"`
	EndTime      time.Time `gorm:"not null"`
	SchedulingId *string   `gorm:"null"`
	ResourceId   *string   `gorm:"null"`
	LogReportId  *string   `gorm:"null"`
	VideoLink    *string   `gorm:"null"`
}

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) GetByKey(sessionKey string, preloads ...string) (*RaidSession, error) {
	var session RaidSession
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Where("session_key = ?", sessionKey).First(&session)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find session %q: %w", sessionKey, result.Error)
	}
	return &session, nil
}

func (r *SessionRepository) Exists(sessionKey string) (bool, error) {
	var count int64
	result := r.DB.Model(&RaidSession{}).Where("session_key = ?", sessionKey).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check session %q: %w", sessionKey, result.Error)
	}
	return count > 0, nil
}

func (r *SessionRepository) Create(session *RaidSession) (*RaidSession, error) {
	if err := r.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session %q: %w", session.SessionKey, err)
	}
	return session, nil
}

func (r *SessionRepository) FindAll(preloads ...string) ([]*RaidSession, error) {
	var sessions []*RaidSession
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Order("year, week, session_key").Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", result.Error)
	}
	return sessions, nil
}

// UpsertPart inserts a part or, when (session, part number) already exists,
// overwrites its mutable metadata. The returned part carries the stored id.
func (r *SessionRepository) UpsertPart(part *SessionPart) (*SessionPart, error) {
	var existing SessionPart
	result := r.DB.Where("session_id = ? AND part_number = ?", part.SessionId, part.PartNumber).First(&existing)
	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to look up part %d of session %d: %w", part.PartNumber, part.SessionId, result.Error)
		}
		if err := r.DB.Create(part).Error; err != nil {
			return nil, fmt.Errorf("failed to create part %d of session %d: %w", part.PartNumber, part.SessionId, err)
		}
		return part, nil
	}
	existing.StartTime = part.StartTime
	existing.EndTime = part.EndTime
	existing.SchedulingId = part.SchedulingId
	existing.ResourceId = part.ResourceId
	existing.LogReportId = part.LogReportId
	existing.VideoLink = part.VideoLink
	if err := r.DB.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to update part %d of session %d: %w", part.PartNumber, part.SessionId, err)
	}
	return &existing, nil
}

func (r *SessionRepository) GetParts(sessionId int) ([]*SessionPart, error) {
	var parts []*SessionPart
	result := r.DB.Where("session_id = ?", sessionId).Order("part_number").Find(&parts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find parts of session %d: %w", sessionId, result.Error)
	}
	return parts, nil
}

func (r *SessionRepository) SetCleared(sessionId int, cleared bool) error {
	result := r.DB.Model(&RaidSession{}).Where("id = ?", sessionId).Update("was_cleared", cleared)
	if result.Error != nil {
		return fmt.Errorf("failed to set clear status of session %d: %w", sessionId, result.Error)
	}
	return nil
}

func (r *SessionRepository) SetNotes(sessionKey string, notes string) error {
	result := r.DB.Model(&RaidSession{}).Where("session_key = ?", sessionKey).Update("notes", notes)
	if result.Error != nil {
		return fmt.Errorf("failed to update notes of session %q: %w", sessionKey, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update notes: no session %q", sessionKey)
	}
	return nil
}

func (r *SessionRepository) MarkIrrelevant(sessionKey string, reason string) error {
	session, err := r.GetByKey(sessionKey)
	if err != nil {
		return err
	}
	session.Irrelevant = true
	if reason != "" {
		if session.Notes != "" {
			session.Notes += "\n"
		}
		session.Notes += reason
	}
	if err := r.DB.Save(session).Error; err != nil {
		return fmt.Errorf("failed to mark session %q irrelevant: %w", sessionKey, err)
	}
	return nil
}

// DeleteSession removes a session and everything hanging off it. Dependent
// rows go first (deaths, loot, completions per part), then parts, then the
// session row, so a failure partway cannot orphan children. The caller is
// expected to run this inside a transaction.
func (r *SessionRepository) DeleteSession(sessionKey string) error {
	var session RaidSession
	result := r.DB.Where("session_key = ?", sessionKey).First(&session)
	if result.Error == gorm.ErrRecordNotFound {
		return nil
	}
	if result.Error != nil {
		return fmt.Errorf("failed to find session %q: %w", sessionKey, result.Error)
	}
	parts, err := r.GetParts(session.Id)
	if err != nil {
		return err
	}
	for _, part := range parts {
		if err := r.DB.Where("part_id = ?", part.Id).Delete(&EntityDeath{}).Error; err != nil {
			return fmt.Errorf("failed to delete deaths of part %d: %w", part.Id, err)
		}
		if err := r.DB.Where("part_id = ?", part.Id).Delete(&Loot{}).Error; err != nil {
			return fmt.Errorf("failed to delete loot of part %d: %w", part.Id, err)
		}
		if err := r.DB.Where("part_id = ?", part.Id).Delete(&EncounterCompletion{}).Error; err != nil {
			return fmt.Errorf("failed to delete completions of part %d: %w", part.Id, err)
		}
	}
	if err := r.DB.Where("session_id = ?", session.Id).Delete(&SessionPart{}).Error; err != nil {
		return fmt.Errorf("failed to delete parts of session %q: %w", sessionKey, err)
	}
	if err := r.DB.Delete(&session).Error; err != nil {
		return fmt.Errorf("failed to delete session %q: %w", sessionKey, err)
	}
	return nil
}
