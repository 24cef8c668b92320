package service

import (
	"sort"
	"time"

	"github.com/Azzc0/fika-guild.xyz/parser"
	"github.com/Azzc0/fika-guild.xyz/utils"
)

// CompletionCandidate is one reconciled (part, encounter) outcome, ready for
// upsert once the encounter name is resolved to its id.
type CompletionCandidate struct {
	EncounterName  string
	CompletionTime *time.Time
	IsKill         bool
	Wipes          *int
}

// Reconcile merges log-derived kills with manually recorded wipe counts into
// one candidate per encounter. A kill and a wipe entry for the same boss are
// compatible: the row keeps the kill flag and time from the log and the wipe
// count from the manual entry. A nil wipe count means "not recorded", which
// is distinct from zero wipes.
//
// Encounters named in exclusions get is_kill forced to false even when the
// log saw a boss death (backup kills, resets). The completion time and wipe
// count survive the override; only the kill flag is negated, so first-kill
// and average queries must not treat the row as a genuine completion.
func Reconcile(kills []*parser.EncounterKill, manualWipes map[string]int, exclusions []string) []*CompletionCandidate {
	merged := make(map[string]*CompletionCandidate)

	for _, kill := range kills {
		completionTime := kill.CompletionTime
		merged[kill.EncounterName] = &CompletionCandidate{
			EncounterName:  kill.EncounterName,
			CompletionTime: &completionTime,
			IsKill:         true,
		}
	}
	for encounterName, wipeCount := range manualWipes {
		wipes := wipeCount
		if candidate, ok := merged[encounterName]; ok {
			if candidate.Wipes == nil || *candidate.Wipes < wipes {
				candidate.Wipes = &wipes
			}
			continue
		}
		merged[encounterName] = &CompletionCandidate{
			EncounterName: encounterName,
			Wipes:         &wipes,
		}
	}

	candidates := make([]*CompletionCandidate, 0, len(merged))
	for _, candidate := range merged {
		if utils.Contains(exclusions, candidate.EncounterName) {
			candidate.IsKill = false
		}
		candidates = append(candidates, candidate)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].EncounterName < candidates[j].EncounterName
	})
	return candidates
}
