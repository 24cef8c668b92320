package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// EntityDeath is the aggregated death counter for one entity within one part.
// The count never decreases across re-imports of the same part.
type EntityDeath struct {
	PartId      int       `gorm:"primaryKey;autoIncrement:false"`
	EntityName  string    `gorm:"primaryKey"`
	Count       int       `gorm:"not null"`
	LastDeathAt time.Time `gorm:"not null"`
}

type DeathRepository struct {
	DB *gorm.DB
}

func NewDeathRepository(db *gorm.DB) *DeathRepository {
	return &DeathRepository{DB: db}
}

// UpsertBatch inserts death aggregates, keeping the larger count on conflict.
// The last-seen timestamp only moves when the count actually increased, so a
// partial re-import cannot drag it backwards.
func (r *DeathRepository) UpsertBatch(rows []*EntityDeath) error {
	for _, row := range rows {
		var existing EntityDeath
		result := r.DB.Where("part_id = ? AND entity_name = ?", row.PartId, row.EntityName).First(&existing)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return fmt.Errorf("failed to look up death (%d, %s): %w", row.PartId, row.EntityName, result.Error)
			}
			if err := r.DB.Create(row).Error; err != nil {
				return fmt.Errorf("failed to insert death (%d, %s): %w", row.PartId, row.EntityName, err)
			}
			continue
		}
		if row.Count <= existing.Count {
			continue
		}
		existing.Count = row.Count
		existing.LastDeathAt = row.LastDeathAt
		if err := r.DB.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update death (%d, %s): %w", row.PartId, row.EntityName, err)
		}
	}
	return nil
}

func (r *DeathRepository) GetForParts(partIds []int) ([]*EntityDeath, error) {
	if len(partIds) == 0 {
		return []*EntityDeath{}, nil
	}
	var rows []*EntityDeath
	result := r.DB.Where("part_id IN ?", partIds).Order("entity_name").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find entity deaths: %w", result.Error)
	}
	return rows, nil
}
