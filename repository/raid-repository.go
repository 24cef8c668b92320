package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type Raid struct {
	Id           int          `gorm:"primaryKey"`
	Name         string       `gorm:"not null"`
	Abbreviation string       `gorm:"not null;uniqueIndex"`
	BossCount    int          `gorm:"not null"`
	Description  string       `gorm:"null"`
	Encounters   []*Encounter `gorm:"foreignKey:RaidId;constraint:OnDelete:CASCADE"`
}

type Encounter struct {
	Id       int                `gorm:"primaryKey"`
	RaidId   int                `gorm:"not null;uniqueIndex:idx_encounter_raid_name"`
	Name     string             `gorm:"not null;uniqueIndex:idx_encounter_raid_name"`
	Entities []*EncounterEntity `gorm:"foreignKey:EncounterId;constraint:OnDelete:CASCADE"`
}

// EncounterEntity maps an in-game actor to the encounter its death completes.
type EncounterEntity struct {
	EncounterId int    `gorm:"primaryKey;autoIncrement:false"`
	EntityName  string `gorm:"primaryKey"`
}

type RaidRepository struct {
	DB *gorm.DB
}

func NewRaidRepository(db *gorm.DB) *RaidRepository {
	return &RaidRepository{DB: db}
}

func (r *RaidRepository) GetByAbbreviation(abbreviation string) (*Raid, error) {
	var raid Raid
	result := r.DB.Preload("Encounters.Entities").Where("abbreviation = ?", abbreviation).First(&raid)
	if result.Error != nil {
		return nil, fmt.Errorf("unknown raid %q: %w", abbreviation, result.Error)
	}
	return &raid, nil
}

func (r *RaidRepository) FindAll() ([]*Raid, error) {
	var raids []*Raid
	result := r.DB.Preload("Encounters.Entities").Order("abbreviation").Find(&raids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find raids: %w", result.Error)
	}
	return raids, nil
}

// UpsertRaid creates or updates a raid by its abbreviation and returns the
// stored row.
func (r *RaidRepository) UpsertRaid(raid *Raid) (*Raid, error) {
	var existing Raid
	result := r.DB.Where("abbreviation = ?", raid.Abbreviation).First(&existing)
	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to look up raid %q: %w", raid.Abbreviation, result.Error)
		}
		if err := r.DB.Create(raid).Error; err != nil {
			return nil, fmt.Errorf("failed to create raid %q: %w", raid.Abbreviation, err)
		}
		return raid, nil
	}
	existing.Name = raid.Name
	existing.BossCount = raid.BossCount
	existing.Description = raid.Description
	if err := r.DB.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to update raid %q: %w", raid.Abbreviation, err)
	}
	return &existing, nil
}

func (r *RaidRepository) UpsertEncounter(raidId int, name string) (*Encounter, error) {
	var encounter Encounter
	result := r.DB.Where("raid_id = ? AND name = ?", raidId, name).First(&encounter)
	if result.Error != nil {
		if result.Error != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to look up encounter %q: %w", name, result.Error)
		}
		encounter = Encounter{RaidId: raidId, Name: name}
		if err := r.DB.Create(&encounter).Error; err != nil {
			return nil, fmt.Errorf("failed to create encounter %q: %w", name, err)
		}
	}
	return &encounter, nil
}

func (r *RaidRepository) DeleteEncounter(encounter *Encounter) error {
	if err := r.DB.Where("encounter_id = ?", encounter.Id).Delete(&EncounterEntity{}).Error; err != nil {
		return fmt.Errorf("failed to delete entities of encounter %q: %w", encounter.Name, err)
	}
	if err := r.DB.Delete(encounter).Error; err != nil {
		return fmt.Errorf("failed to delete encounter %q: %w", encounter.Name, err)
	}
	return nil
}

func (r *RaidRepository) GetEntities(encounterId int) ([]*EncounterEntity, error) {
	var entities []*EncounterEntity
	result := r.DB.Where("encounter_id = ?", encounterId).Find(&entities)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find encounter entities: %w", result.Error)
	}
	return entities, nil
}

func (r *RaidRepository) AddEntity(encounterId int, entityName string) error {
	entity := &EncounterEntity{EncounterId: encounterId, EntityName: entityName}
	if err := r.DB.Create(entity).Error; err != nil {
		return fmt.Errorf("failed to add entity %q: %w", entityName, err)
	}
	return nil
}

func (r *RaidRepository) RemoveEntity(encounterId int, entityName string) error {
	result := r.DB.Where("encounter_id = ? AND entity_name = ?", encounterId, entityName).Delete(&EncounterEntity{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove entity %q: %w", entityName, result.Error)
	}
	return nil
}
