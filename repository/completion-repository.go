package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// EncounterCompletion is the reconciled outcome of one encounter within one
// part. CompletionTime is nil for pure wipes; Wipes is nil when nobody
// recorded a wipe count, which is distinct from zero wipes.
type EncounterCompletion struct {
	PartId         int        `gorm:"primaryKey;autoIncrement:false"`
	EncounterId    int        `gorm:"primaryKey;autoIncrement:false"`
	Encounter      *Encounter `gorm:"foreignKey:EncounterId"`
	CompletionTime *time.Time `gorm:"null"`
	IsKill         bool       `gorm:"not null"`
	Wipes          *int       `gorm:"null"`
}

type CompletionRepository struct {
	DB *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{DB: db}
}

// UpsertBatch inserts completion rows, merging field by field on conflict:
// an incoming non-null value wins, a null leaves the stored value alone.
func (r *CompletionRepository) UpsertBatch(rows []*EncounterCompletion) error {
	for _, row := range rows {
		var existing EncounterCompletion
		result := r.DB.Where("part_id = ? AND encounter_id = ?", row.PartId, row.EncounterId).First(&existing)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return fmt.Errorf("failed to look up completion (%d, %d): %w", row.PartId, row.EncounterId, result.Error)
			}
			if err := r.DB.Create(row).Error; err != nil {
				return fmt.Errorf("failed to insert completion (%d, %d): %w", row.PartId, row.EncounterId, err)
			}
			continue
		}
		if row.CompletionTime != nil {
			existing.CompletionTime = row.CompletionTime
		}
		existing.IsKill = row.IsKill
		if row.Wipes != nil {
			existing.Wipes = row.Wipes
		}
		if err := r.DB.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update completion (%d, %d): %w", row.PartId, row.EncounterId, err)
		}
	}
	return nil
}

func (r *CompletionRepository) GetForParts(partIds []int) ([]*EncounterCompletion, error) {
	if len(partIds) == 0 {
		return []*EncounterCompletion{}, nil
	}
	var rows []*EncounterCompletion
	result := r.DB.Preload("Encounter").Where("part_id IN ?", partIds).Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find completions: %w", result.Error)
	}
	return rows, nil
}

// GetKillsForRaid returns, per encounter of the raid, the earliest recorded
// kill time across all non-irrelevant sessions. Used for progress pages.
func (r *CompletionRepository) GetKillsForRaid(raidId int) (map[int]time.Time, error) {
	var rows []*EncounterCompletion
	result := r.DB.
		Joins("JOIN session_parts ON session_parts.id = encounter_completions.part_id").
		Joins("JOIN raid_sessions ON raid_sessions.id = session_parts.session_id").
		Where("raid_sessions.raid_id = ? AND raid_sessions.irrelevant = ? AND encounter_completions.is_kill = ?", raidId, false, true).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find kills for raid %d: %w", raidId, result.Error)
	}
	firstKills := make(map[int]time.Time)
	for _, row := range rows {
		if row.CompletionTime == nil {
			continue
		}
		if existing, ok := firstKills[row.EncounterId]; !ok || row.CompletionTime.Before(existing) {
			firstKills[row.EncounterId] = *row.CompletionTime
		}
	}
	return firstKills, nil
}
