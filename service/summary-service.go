package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Azzc0/fika-guild.xyz/metrics"
	"github.com/Azzc0/fika-guild.xyz/repository"
	"gorm.io/gorm"
)

type PartSummary struct {
	PartNumber  int     `json:"part_number"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	LogReportId *string `json:"log_report_id,omitempty"`
	VideoLink   *string `json:"video_link,omitempty"`
}

type EncounterSummary struct {
	EncounterName  string  `json:"encounter_name"`
	IsKill         bool    `json:"is_kill"`
	CompletionTime *string `json:"completion_time,omitempty"`
	Wipes          *int    `json:"wipes,omitempty"`
}

type LootSummary struct {
	PlayerName string            `json:"player_name"`
	ItemId     int               `json:"item_id"`
	ItemName   string            `json:"item_name"`
	Rarity     repository.Rarity `json:"rarity"`
	Quantity   int               `json:"quantity"`
}

type SessionSummary struct {
	SessionKey       string              `json:"session_key"`
	RaidName         string              `json:"raid_name"`
	RaidAbbreviation string              `json:"raid_abbreviation"`
	Year             int                 `json:"year"`
	Week             int                 `json:"week"`
	Notes            string              `json:"notes"`
	WasCleared       bool                `json:"was_cleared"`
	Irrelevant       bool                `json:"irrelevant"`
	Parts            []*PartSummary      `json:"parts"`
	Encounters       []*EncounterSummary `json:"encounters"`
	Loot             []*LootSummary      `json:"loot"`
	DeathCount       int                 `json:"death_count"`
}

type WeekSummary struct {
	Year     int               `json:"year"`
	Week     int               `json:"week"`
	Sessions []*SessionSummary `json:"sessions"`
}

// SummaryService owns the presentation cache: one summary record per session,
// keyed by session key for O(1) lookup. The cache is built in full by
// Refresh (after imports and on a timer) and only read in between, so readers
// never see a half-built state.
type SummaryService struct {
	db *gorm.DB

	mu        sync.RWMutex
	bySession map[string]*SessionSummary
	ordered   []*SessionSummary
}

func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{
		db:        db,
		bySession: make(map[string]*SessionSummary),
		ordered:   []*SessionSummary{},
	}
}

func (s *SummaryService) Refresh() error {
	sessionRepository := repository.NewSessionRepository(s.db)
	lootRepository := repository.NewLootRepository(s.db)
	deathRepository := repository.NewDeathRepository(s.db)
	completionRepository := repository.NewCompletionRepository(s.db)

	sessions, err := sessionRepository.FindAll("Raid", "Parts")
	if err != nil {
		return fmt.Errorf("refreshing summary cache: %w", err)
	}

	bySession := make(map[string]*SessionSummary, len(sessions))
	ordered := make([]*SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary, err := s.buildSummary(session, lootRepository, deathRepository, completionRepository)
		if err != nil {
			return fmt.Errorf("refreshing summary cache: %w", err)
		}
		bySession[session.SessionKey] = summary
		ordered = append(ordered, summary)
	}

	s.mu.Lock()
	s.bySession = bySession
	s.ordered = ordered
	s.mu.Unlock()
	metrics.SummaryCacheRefreshes.Inc()
	return nil
}

func (s *SummaryService) buildSummary(
	session *repository.RaidSession,
	lootRepository *repository.LootRepository,
	deathRepository *repository.DeathRepository,
	completionRepository *repository.CompletionRepository,
) (*SessionSummary, error) {
	summary := &SessionSummary{
		SessionKey: session.SessionKey,
		Year:       session.Year,
		Week:       session.Week,
		Notes:      session.Notes,
		WasCleared: session.WasCleared,
		Irrelevant: session.Irrelevant,
		Parts:      []*PartSummary{},
		Encounters: []*EncounterSummary{},
		Loot:       []*LootSummary{},
	}
	if session.Raid != nil {
		summary.RaidName = session.Raid.Name
		summary.RaidAbbreviation = session.Raid.Abbreviation
	}

	partIds := make([]int, 0, len(session.Parts))
	sort.Slice(session.Parts, func(i, j int) bool {
		return session.Parts[i].PartNumber < session.Parts[j].PartNumber
	})
	for _, part := range session.Parts {
		partIds = append(partIds, part.Id)
		summary.Parts = append(summary.Parts, &PartSummary{
			PartNumber:  part.PartNumber,
			StartTime:   part.StartTime.Format(time.RFC3339),
			EndTime:     part.EndTime.Format(time.RFC3339),
			LogReportId: part.LogReportId,
			VideoLink:   part.VideoLink,
		})
	}

	completions, err := completionRepository.GetForParts(partIds)
	if err != nil {
		return nil, err
	}
	summary.Encounters = mergeCompletions(completions)

	loot, err := lootRepository.GetForParts(partIds)
	if err != nil {
		return nil, err
	}
	for _, row := range loot {
		summary.Loot = append(summary.Loot, &LootSummary{
			PlayerName: row.PlayerName,
			ItemId:     row.ItemId,
			ItemName:   row.ItemName,
			Rarity:     row.Rarity,
			Quantity:   row.Quantity,
		})
	}

	deaths, err := deathRepository.GetForParts(partIds)
	if err != nil {
		return nil, err
	}
	for _, death := range deaths {
		summary.DeathCount += death.Count
	}
	return summary, nil
}

// mergeCompletions folds per-part completion rows into one line per
// encounter for display: killed anywhere counts as killed, wipes add up
// across parts.
func mergeCompletions(completions []*repository.EncounterCompletion) []*EncounterSummary {
	byName := make(map[string]*EncounterSummary)
	names := []string{}
	for _, completion := range completions {
		name := fmt.Sprintf("encounter %d", completion.EncounterId)
		if completion.Encounter != nil {
			name = completion.Encounter.Name
		}
		entry, ok := byName[name]
		if !ok {
			entry = &EncounterSummary{EncounterName: name}
			byName[name] = entry
			names = append(names, name)
		}
		if completion.IsKill {
			entry.IsKill = true
		}
		if completion.CompletionTime != nil {
			formatted := completion.CompletionTime.Format(time.RFC3339)
			if entry.CompletionTime == nil || formatted < *entry.CompletionTime {
				entry.CompletionTime = &formatted
			}
		}
		if completion.Wipes != nil {
			total := *completion.Wipes
			if entry.Wipes != nil {
				total += *entry.Wipes
			}
			entry.Wipes = &total
		}
	}
	sort.Strings(names)
	merged := make([]*EncounterSummary, 0, len(names))
	for _, name := range names {
		merged = append(merged, byName[name])
	}
	return merged
}

type ProgressEntry struct {
	EncounterName string  `json:"encounter_name"`
	Killed        bool    `json:"killed"`
	FirstKill     *string `json:"first_kill,omitempty"`
}

// Progress reports, per registered encounter of a raid, whether it has ever
// been killed in a relevant session and when the first kill happened.
func (s *SummaryService) Progress(abbreviation string) ([]*ProgressEntry, error) {
	raidRepository := repository.NewRaidRepository(s.db)
	completionRepository := repository.NewCompletionRepository(s.db)

	raid, err := raidRepository.GetByAbbreviation(abbreviation)
	if err != nil {
		return nil, err
	}
	firstKills, err := completionRepository.GetKillsForRaid(raid.Id)
	if err != nil {
		return nil, err
	}
	entries := make([]*ProgressEntry, 0, len(raid.Encounters))
	for _, encounter := range raid.Encounters {
		entry := &ProgressEntry{EncounterName: encounter.Name}
		if firstKill, ok := firstKills[encounter.Id]; ok {
			entry.Killed = true
			formatted := firstKill.Format(time.RFC3339)
			entry.FirstKill = &formatted
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *SummaryService) GetSession(sessionKey string) (*SessionSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.bySession[sessionKey]
	return summary, ok
}

func (s *SummaryService) Sessions() []*SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ordered
}

// Weeks groups the cached sessions into the raid schedule, newest week first.
func (s *SummaryService) Weeks() []*WeekSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type weekKey struct{ year, week int }
	byWeek := make(map[weekKey]*WeekSummary)
	keys := []weekKey{}
	for _, summary := range s.ordered {
		key := weekKey{year: summary.Year, week: summary.Week}
		entry, ok := byWeek[key]
		if !ok {
			entry = &WeekSummary{Year: summary.Year, Week: summary.Week, Sessions: []*SessionSummary{}}
			byWeek[key] = entry
			keys = append(keys, key)
		}
		entry.Sessions = append(entry.Sessions, summary)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		return keys[i].week > keys[j].week
	})
	weeks := make([]*WeekSummary, 0, len(keys))
	for _, key := range keys {
		weeks = append(weeks, byWeek[key])
	}
	return weeks
}
