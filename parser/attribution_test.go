package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttributeKillsSingleEntity(t *testing.T) {
	deathTime := time.Date(2025, 12, 3, 20, 15, 42, 500*int(time.Millisecond), time.UTC)
	deaths := []*DeathAggregate{
		{EntityName: "Ragnaros", Count: 1, LastDeathAt: deathTime},
	}
	kills := AttributeKills(deaths, map[string]string{"Ragnaros": "Ragnaros"})
	assert.Len(t, kills, 1)
	assert.Equal(t, "Ragnaros", kills[0].EncounterName)
	assert.Equal(t, deathTime, kills[0].CompletionTime)
}

func TestAttributeKillsPartialCouncil(t *testing.T) {
	// Only one of the two golems died, which still completes the encounter.
	deathTime := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	deaths := []*DeathAggregate{
		{EntityName: "Smoldaris", Count: 1, LastDeathAt: deathTime},
	}
	index := map[string]string{
		"Basalthar": "Twin Golems",
		"Smoldaris": "Twin Golems",
	}
	kills := AttributeKills(deaths, index)
	assert.Len(t, kills, 1)
	assert.Equal(t, "Twin Golems", kills[0].EncounterName)
	assert.Equal(t, deathTime, kills[0].CompletionTime)
}

func TestAttributeKillsTakesLatestDeath(t *testing.T) {
	earlier := time.Date(2025, 12, 3, 20, 50, 0, 0, time.UTC)
	later := time.Date(2025, 12, 3, 21, 0, 0, 0, time.UTC)
	deaths := []*DeathAggregate{
		{EntityName: "Basalthar", Count: 1, LastDeathAt: later},
		{EntityName: "Smoldaris", Count: 1, LastDeathAt: earlier},
	}
	index := map[string]string{
		"Basalthar": "Twin Golems",
		"Smoldaris": "Twin Golems",
	}
	kills := AttributeKills(deaths, index)
	assert.Len(t, kills, 1)
	assert.Equal(t, later, kills[0].CompletionTime)
}

func TestAttributeKillsIgnoresUnregisteredEntities(t *testing.T) {
	deaths := []*DeathAggregate{
		{EntityName: "Core Hound", Count: 12, LastDeathAt: time.Now()},
	}
	kills := AttributeKills(deaths, map[string]string{"Ragnaros": "Ragnaros"})
	assert.Empty(t, kills)
}
