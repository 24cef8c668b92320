package parser

import (
	"sort"
	"time"
)

// EncounterKill is a log-derived encounter completion: at least one of the
// encounter's entities died, and the completion time is the latest death
// among them.
type EncounterKill struct {
	EncounterName  string
	CompletionTime time.Time
}

// AttributeKills joins death aggregates against the registry's
// entity -> encounter index. Encounters with no matching death are simply
// absent; whether they were wiped on or never pulled is decided later by the
// reconciler, not here.
func AttributeKills(deaths []*DeathAggregate, entityEncounters map[string]string) []*EncounterKill {
	byEncounter := make(map[string]time.Time)
	for _, death := range deaths {
		encounterName, ok := entityEncounters[death.EntityName]
		if !ok {
			continue
		}
		if existing, ok := byEncounter[encounterName]; !ok || death.LastDeathAt.After(existing) {
			byEncounter[encounterName] = death.LastDeathAt
		}
	}
	kills := make([]*EncounterKill, 0, len(byEncounter))
	for name, completionTime := range byEncounter {
		kills = append(kills, &EncounterKill{EncounterName: name, CompletionTime: completionTime})
	}
	sort.Slice(kills, func(i, j int) bool {
		return kills[i].EncounterName < kills[j].EncounterName
	})
	return kills
}
