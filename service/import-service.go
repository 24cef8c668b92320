package service

import (
	"fmt"
	"log"
	"time"

	"github.com/Azzc0/fika-guild.xyz/metrics"
	"github.com/Azzc0/fika-guild.xyz/parser"
	"github.com/Azzc0/fika-guild.xyz/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartInput describes one recording segment of a session to import.
type PartInput struct {
	LogPath      string
	Start        time.Time
	End          time.Time
	ManualWipes  map[string]int
	SchedulingId *string
	ResourceId   *string
	LogReportId  *string
	VideoLink    *string
}

type ImportInput struct {
	RaidAbbreviation string
	SessionKey       string
	Notes            string
	Exclusions       []string
	Parts            []*PartInput
}

func (input *ImportInput) Validate() error {
	if input.RaidAbbreviation == "" {
		return fmt.Errorf("import input needs a raid abbreviation")
	}
	if input.SessionKey == "" {
		return fmt.Errorf("import input needs a session key")
	}
	if len(input.Parts) == 0 {
		return fmt.Errorf("import input needs at least one part")
	}
	for i, part := range input.Parts {
		if part.LogPath == "" {
			return fmt.Errorf("part %d needs a log path", i+1)
		}
		if !part.Start.Before(part.End) {
			return fmt.Errorf("part %d must start before it ends", i+1)
		}
	}
	return nil
}

type PartReport struct {
	PartNumber int      `json:"part_number"`
	Deaths     int      `json:"deaths"`
	LootEvents int      `json:"loot_events"`
	Trades     int      `json:"trades"`
	Encounters int      `json:"encounters"`
	Warnings   []string `json:"warnings"`
}

type ImportReport struct {
	RunId             string        `json:"run_id"`
	SessionKey        string        `json:"session_key"`
	Year              int           `json:"year"`
	Week              int           `json:"week"`
	Cleared           bool          `json:"cleared"`
	MissingEncounters []string      `json:"missing_encounters"`
	Parts             []*PartReport `json:"parts"`
}

// ImportService drives a full session import: parse every part's combat log,
// reconcile encounter outcomes, and persist the lot. Re-running an import for
// the same session key is always safe; the previous rows are deleted and
// recreated inside one transaction. The pipeline assumes a single writer per
// session key and provides no locking against concurrent imports.
type ImportService struct {
	db *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// RaidWeek returns the (year, ISO week) a raid session belongs to. Raid weeks
// roll over on Wednesday (the reset day), so the anchor is the most recent
// Wednesday on or before the given date.
func RaidWeek(t time.Time) (int, int) {
	isoWeekday := int(t.Weekday())
	if isoWeekday == 0 {
		isoWeekday = 7
	}
	daysBack := (isoWeekday - 3 + 7) % 7
	anchor := t.AddDate(0, 0, -daysBack)
	return anchor.ISOWeek()
}

func (s *ImportService) ImportSession(input *ImportInput) (*ImportReport, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	runId := uuid.New().String()
	report := &ImportReport{
		RunId:             runId,
		SessionKey:        input.SessionKey,
		MissingEncounters: []string{},
		Parts:             []*PartReport{},
	}
	log.Printf("[import %s] starting session %q (%s, %d parts)", runId, input.SessionKey, input.RaidAbbreviation, len(input.Parts))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		raidRepository := repository.NewRaidRepository(tx)
		sessionRepository := repository.NewSessionRepository(tx)
		lootRepository := repository.NewLootRepository(tx)
		deathRepository := repository.NewDeathRepository(tx)
		completionRepository := repository.NewCompletionRepository(tx)

		raid, err := raidRepository.GetByAbbreviation(input.RaidAbbreviation)
		if err != nil {
			return err
		}
		encounterIds := make(map[string]int)
		encounterNames := make(map[int]string)
		entityEncounters := make(map[string]string)
		for _, encounter := range raid.Encounters {
			encounterIds[encounter.Name] = encounter.Id
			encounterNames[encounter.Id] = encounter.Name
			for _, entity := range encounter.Entities {
				entityEncounters[entity.EntityName] = encounter.Name
			}
		}

		if err := sessionRepository.DeleteSession(input.SessionKey); err != nil {
			return err
		}
		year, week := RaidWeek(input.Parts[0].Start)
		report.Year, report.Week = year, week
		session, err := sessionRepository.Create(&repository.RaidSession{
			SessionKey: input.SessionKey,
			RaidId:     raid.Id,
			Year:       year,
			Week:       week,
			Notes:      input.Notes,
		})
		if err != nil {
			return err
		}

		accumulated := []*repository.EncounterCompletion{}
		killed := make(map[string]bool)
		for i, partInput := range input.Parts {
			partReport, completions, err := s.importPart(
				runId, session.Id, i+1, partInput, input.Exclusions,
				encounterIds, entityEncounters,
				sessionRepository, lootRepository, deathRepository)
			if err != nil {
				return err
			}
			for _, completion := range completions {
				accumulated = append(accumulated, completion)
				if completion.IsKill {
					killed[encounterNames[completion.EncounterId]] = true
				}
			}
			report.Parts = append(report.Parts, partReport)
		}
		if err := completionRepository.UpsertBatch(accumulated); err != nil {
			return err
		}

		for _, encounter := range raid.Encounters {
			if !killed[encounter.Name] {
				report.MissingEncounters = append(report.MissingEncounters, encounter.Name)
			}
		}
		report.Cleared = len(report.MissingEncounters) == 0
		return sessionRepository.SetCleared(session.Id, report.Cleared)
	})
	if err != nil {
		return nil, fmt.Errorf("import of session %q failed: %w", input.SessionKey, err)
	}

	metrics.SessionsImported.Inc()
	if report.Cleared {
		metrics.SessionsCleared.Inc()
		log.Printf("[import %s] session %q cleared", runId, input.SessionKey)
	} else {
		log.Printf("[import %s] session %q not cleared, missing: %v", runId, input.SessionKey, report.MissingEncounters)
	}
	return report, nil
}

func (s *ImportService) importPart(
	runId string, sessionId, partNumber int, input *PartInput, exclusions []string,
	encounterIds map[string]int, entityEncounters map[string]string,
	sessionRepository *repository.SessionRepository,
	lootRepository *repository.LootRepository,
	deathRepository *repository.DeathRepository,
) (*PartReport, []*repository.EncounterCompletion, error) {
	result, err := parser.ParseCombatLog(input.LogPath, input.Start, input.End)
	if err != nil {
		return nil, nil, err
	}

	part, err := sessionRepository.UpsertPart(&repository.SessionPart{
		SessionId:    sessionId,
		PartNumber:   partNumber,
		StartTime:    input.Start,
		EndTime:      input.End,
		SchedulingId: input.SchedulingId,
		ResourceId:   input.ResourceId,
		LogReportId:  input.LogReportId,
		VideoLink:    input.VideoLink,
	})
	if err != nil {
		return nil, nil, err
	}
	if part.Id == 0 {
		return nil, nil, fmt.Errorf("no part id assigned for part %d of session %d", partNumber, sessionId)
	}

	report := &PartReport{
		PartNumber: partNumber,
		Deaths:     len(result.Deaths),
		LootEvents: len(result.Loot),
		Trades:     len(result.Trades),
		Warnings:   result.Warnings,
	}

	kills := parser.AttributeKills(result.Deaths, entityEncounters)
	candidates := Reconcile(kills, input.ManualWipes, exclusions)
	completions := make([]*repository.EncounterCompletion, 0, len(candidates))
	for _, candidate := range candidates {
		encounterId, ok := encounterIds[candidate.EncounterName]
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"dropping completion for unregistered encounter %q", candidate.EncounterName))
			continue
		}
		completions = append(completions, &repository.EncounterCompletion{
			PartId:         part.Id,
			EncounterId:    encounterId,
			CompletionTime: candidate.CompletionTime,
			IsKill:         candidate.IsKill,
			Wipes:          candidate.Wipes,
		})
	}
	report.Encounters = len(completions)

	if err := deathRepository.UpsertBatch(deathRows(part.Id, result.Deaths)); err != nil {
		return nil, nil, err
	}
	lootBatch, duplicateWarnings := lootRows(part.Id, result.Loot)
	report.Warnings = append(report.Warnings, duplicateWarnings...)
	if err := lootRepository.UpsertBatch(lootBatch); err != nil {
		return nil, nil, err
	}

	for _, warning := range report.Warnings {
		log.Printf("[import %s] part %d: %s", runId, partNumber, warning)
		metrics.ImportWarnings.Inc()
	}
	log.Printf("[import %s] part %d: %d deaths, %d loot events, %d trades, %d encounters",
		runId, partNumber, report.Deaths, report.LootEvents, report.Trades, report.Encounters)
	return report, completions, nil
}

func deathRows(partId int, deaths []*parser.DeathAggregate) []*repository.EntityDeath {
	rows := make([]*repository.EntityDeath, 0, len(deaths))
	for _, death := range deaths {
		rows = append(rows, &repository.EntityDeath{
			PartId:      partId,
			EntityName:  death.EntityName,
			Count:       death.Count,
			LastDeathAt: death.LastDeathAt,
		})
	}
	return rows
}

// lootRows folds raw loot events into one row per (player, item) key. The
// same key appearing more than once is legitimate (stacked drops) but worth
// flagging, since it can also indicate a double-logged pickup.
func lootRows(partId int, events []*parser.LootEvent) ([]*repository.Loot, []string) {
	type lootKey struct {
		player string
		itemId int
	}
	rows := []*repository.Loot{}
	warnings := []string{}
	byKey := make(map[lootKey]*repository.Loot)
	for _, event := range events {
		key := lootKey{player: event.PlayerName, itemId: event.ItemId}
		if existing, ok := byKey[key]; ok {
			existing.Quantity += event.Quantity
			warnings = append(warnings, fmt.Sprintf(
				"duplicate loot key (%s, %d): accumulating quantity", event.PlayerName, event.ItemId))
			continue
		}
		row := &repository.Loot{
			PartId:     partId,
			PlayerName: event.PlayerName,
			ItemId:     event.ItemId,
			ItemName:   event.ItemName,
			Rarity:     event.Rarity,
			Quantity:   event.Quantity,
		}
		byKey[key] = row
		rows = append(rows, row)
	}
	return rows, warnings
}
