package service

import (
	"testing"
	"time"

	"github.com/Azzc0/fika-guild.xyz/parser"
	"github.com/stretchr/testify/assert"
)

func TestReconcileMergesKillWithManualWipes(t *testing.T) {
	killTime := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	kills := []*parser.EncounterKill{
		{EncounterName: "Ragnaros", CompletionTime: killTime},
	}
	candidates := Reconcile(kills, map[string]int{"Ragnaros": 2}, nil)

	assert.Len(t, candidates, 1)
	candidate := candidates[0]
	assert.Equal(t, "Ragnaros", candidate.EncounterName)
	assert.True(t, candidate.IsKill)
	assert.Equal(t, killTime, *candidate.CompletionTime)
	assert.Equal(t, 2, *candidate.Wipes)
}

func TestReconcileWipeOnlyRow(t *testing.T) {
	candidates := Reconcile(nil, map[string]int{"Golemagg": 3}, nil)

	assert.Len(t, candidates, 1)
	candidate := candidates[0]
	assert.Equal(t, "Golemagg", candidate.EncounterName)
	assert.False(t, candidate.IsKill)
	assert.Nil(t, candidate.CompletionTime)
	assert.Equal(t, 3, *candidate.Wipes)
}

func TestReconcileAbsentWipesStayNil(t *testing.T) {
	killTime := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	kills := []*parser.EncounterKill{
		{EncounterName: "Lucifron", CompletionTime: killTime},
	}
	candidates := Reconcile(kills, nil, nil)

	assert.Len(t, candidates, 1)
	// no wipes recorded is not the same as zero wipes
	assert.Nil(t, candidates[0].Wipes)
}

func TestReconcileExclusionOverridesKillFlagOnly(t *testing.T) {
	killTime := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	kills := []*parser.EncounterKill{
		{EncounterName: "Ragnaros", CompletionTime: killTime},
	}
	candidates := Reconcile(kills, map[string]int{"Ragnaros": 2}, []string{"Ragnaros"})

	assert.Len(t, candidates, 1)
	candidate := candidates[0]
	assert.False(t, candidate.IsKill)
	assert.Equal(t, killTime, *candidate.CompletionTime)
	assert.Equal(t, 2, *candidate.Wipes)
}

func TestReconcileSortsByEncounterName(t *testing.T) {
	killTime := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	kills := []*parser.EncounterKill{
		{EncounterName: "Sulfuron", CompletionTime: killTime},
		{EncounterName: "Golemagg", CompletionTime: killTime},
	}
	candidates := Reconcile(kills, map[string]int{"Domo": 1}, nil)

	assert.Len(t, candidates, 3)
	assert.Equal(t, "Domo", candidates[0].EncounterName)
	assert.Equal(t, "Golemagg", candidates[1].EncounterName)
	assert.Equal(t, "Sulfuron", candidates[2].EncounterName)
}
