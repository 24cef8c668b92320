package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type Rarity string

const (
	RarityPoor      Rarity = "Poor"
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
	RarityUnknown   Rarity = "Unknown"
)

type Loot struct {
	PartId     int     `gorm:"primaryKey;autoIncrement:false"`
	PlayerName string  `gorm:"primaryKey"`
	ItemId     int     `gorm:"primaryKey;autoIncrement:false"`
	ItemName   string  `gorm:"not null"`
	Rarity     Rarity  `gorm:"not null"`
	Quantity   int     `gorm:"not null"`
	TradedFrom *string `gorm:"null"`
}

type LootRepository struct {
	DB *gorm.DB
}

func NewLootRepository(db *gorm.DB) *LootRepository {
	return &LootRepository{DB: db}
}

// UpsertBatch inserts loot rows, accumulating quantity when the
// (part, player, item) key already exists. An empty batch is a no-op.
func (r *LootRepository) UpsertBatch(rows []*Loot) error {
	for _, row := range rows {
		var existing Loot
		result := r.DB.Where("part_id = ? AND player_name = ? AND item_id = ?",
			row.PartId, row.PlayerName, row.ItemId).First(&existing)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return fmt.Errorf("failed to look up loot (%d, %s, %d): %w", row.PartId, row.PlayerName, row.ItemId, result.Error)
			}
			if err := r.DB.Create(row).Error; err != nil {
				return fmt.Errorf("failed to insert loot (%d, %s, %d): %w", row.PartId, row.PlayerName, row.ItemId, err)
			}
			continue
		}
		existing.Quantity += row.Quantity
		existing.ItemName = row.ItemName
		existing.Rarity = row.Rarity
		if row.TradedFrom != nil {
			existing.TradedFrom = row.TradedFrom
		}
		if err := r.DB.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update loot (%d, %s, %d): %w", row.PartId, row.PlayerName, row.ItemId, err)
		}
	}
	return nil
}

func (r *LootRepository) GetForParts(partIds []int) ([]*Loot, error) {
	if len(partIds) == 0 {
		return []*Loot{}, nil
	}
	var rows []*Loot
	result := r.DB.Where("part_id IN ?", partIds).Order("player_name, item_name").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find loot: %w", result.Error)
	}
	return rows, nil
}
