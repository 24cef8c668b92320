package service

import (
	"log"

	"github.com/Azzc0/fika-guild.xyz/registry"
	"github.com/Azzc0/fika-guild.xyz/repository"
	"github.com/Azzc0/fika-guild.xyz/utils"
	"gorm.io/gorm"
)

type RegistryService struct {
	db *gorm.DB
}

func NewRegistryService(db *gorm.DB) *RegistryService {
	return &RegistryService{db: db}
}

// SyncRegistry brings the raids/encounters/encounter_entities reference
// tables in line with the hand-maintained catalog. The diff is additive and
// subtractive: entities and encounters dropped from the catalog are removed
// from the database. Session data is never touched.
func (s *RegistryService) SyncRegistry(reg *registry.Registry) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		raidRepository := repository.NewRaidRepository(tx)
		for _, raidDef := range reg.Raids {
			raid, err := raidRepository.UpsertRaid(&repository.Raid{
				Name:         raidDef.Name,
				Abbreviation: raidDef.Abbreviation,
				BossCount:    len(raidDef.Encounters),
				Description:  raidDef.Description,
			})
			if err != nil {
				return err
			}
			for _, encounterDef := range raidDef.Encounters {
				encounter, err := raidRepository.UpsertEncounter(raid.Id, encounterDef.Name)
				if err != nil {
					return err
				}
				if err := s.syncEntities(raidRepository, encounter, encounterDef.Entities); err != nil {
					return err
				}
			}
			if err := s.removeStaleEncounters(raidRepository, raid.Abbreviation, raidDef.EncounterNames()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *RegistryService) syncEntities(raidRepository *repository.RaidRepository, encounter *repository.Encounter, wanted []string) error {
	current, err := raidRepository.GetEntities(encounter.Id)
	if err != nil {
		return err
	}
	currentNames := utils.Map(current, func(e *repository.EncounterEntity) string { return e.EntityName })
	for _, entityName := range wanted {
		if !utils.Contains(currentNames, entityName) {
			if err := raidRepository.AddEntity(encounter.Id, entityName); err != nil {
				return err
			}
			log.Printf("registry: added entity %q to encounter %q", entityName, encounter.Name)
		}
	}
	for _, entityName := range currentNames {
		if !utils.Contains(wanted, entityName) {
			if err := raidRepository.RemoveEntity(encounter.Id, entityName); err != nil {
				return err
			}
			log.Printf("registry: removed entity %q from encounter %q", entityName, encounter.Name)
		}
	}
	return nil
}

func (s *RegistryService) removeStaleEncounters(raidRepository *repository.RaidRepository, abbreviation string, wanted []string) error {
	raid, err := raidRepository.GetByAbbreviation(abbreviation)
	if err != nil {
		return err
	}
	for _, encounter := range raid.Encounters {
		if !utils.Contains(wanted, encounter.Name) {
			if err := raidRepository.DeleteEncounter(encounter); err != nil {
				return err
			}
			log.Printf("registry: removed encounter %q from raid %q", encounter.Name, abbreviation)
		}
	}
	return nil
}
