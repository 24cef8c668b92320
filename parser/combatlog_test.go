package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Azzc0/fika-guild.xyz/repository"
	"github.com/stretchr/testify/assert"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "combat.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDeathLines(t *testing.T) {
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	path := writeLog(t, ""+
		"12/3 20:15:42.500  Ragnaros dies.\n"+
		"12/3 20:30:00  Flamewaker Protector dies.\n"+
		"12/3 20:31:10.1  Flamewaker Protector dies.\n"+
		"some unrelated chatter line\n")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Len(t, result.Deaths, 2)
	assert.Empty(t, result.Warnings)

	flamewaker := result.Deaths[0]
	assert.Equal(t, "Flamewaker Protector", flamewaker.EntityName)
	assert.Equal(t, 2, flamewaker.Count)
	assert.Equal(t, time.Date(2025, 12, 3, 20, 31, 10, 100*int(time.Millisecond), time.UTC), flamewaker.LastDeathAt)

	ragnaros := result.Deaths[1]
	assert.Equal(t, "Ragnaros", ragnaros.EntityName)
	assert.Equal(t, 1, ragnaros.Count)
	assert.Equal(t, time.Date(2025, 12, 3, 20, 15, 42, 500*int(time.Millisecond), time.UTC), ragnaros.LastDeathAt)
}

func TestParseDeathLineWithLeadingIndent(t *testing.T) {
	// Log segments are written two-space-indented; the indentation must not
	// hide the death from the parser.
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	path := writeLog(t, "  12/03 20:15:42.500  Ragnaros dies.\n")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Len(t, result.Deaths, 1)
	assert.Equal(t, "Ragnaros", result.Deaths[0].EntityName)
	assert.Equal(t, 1, result.Deaths[0].Count)
	assert.Equal(t, time.Date(2025, 12, 3, 20, 15, 42, 500*int(time.Millisecond), time.UTC), result.Deaths[0].LastDeathAt)
}

func TestParseDeathOutsideWindowIsWarnedNotDropped(t *testing.T) {
	// The part officially starts at 20:00 but the death was logged earlier.
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	path := writeLog(t, "12/3 19:45:00  Lucifron dies.\n")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Len(t, result.Deaths, 1)
	assert.Equal(t, "Lucifron", result.Deaths[0].EntityName)
	assert.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Lucifron")
	assert.Contains(t, result.Warnings[0], "outside the segment window")
}

func TestParseLootLine(t *testing.T) {
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	path := writeLog(t, "12/3 20:16:00  &Thrall receives loot: |Hitem:12345:0:0:0|h[Sulfuron Hammer]|h|cffa335ee|rx2\n")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Len(t, result.Loot, 1)
	loot := result.Loot[0]
	assert.Equal(t, "Thrall", loot.PlayerName)
	assert.Equal(t, 12345, loot.ItemId)
	assert.Equal(t, "Sulfuron Hammer", loot.ItemName)
	assert.Equal(t, repository.RarityEpic, loot.Rarity)
	assert.Equal(t, 2, loot.Quantity)
}

func TestParseLootLineDefaults(t *testing.T) {
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	// No quantity suffix, no recognizable color, accented player name.
	path := writeLog(t, "12/3 20:16:00  Siobhán receives loot: |Hitem:678:0|h[Hardened Leather]|h\n")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Len(t, result.Loot, 1)
	loot := result.Loot[0]
	assert.Equal(t, "Siobhán", loot.PlayerName)
	assert.Equal(t, 678, loot.ItemId)
	assert.Equal(t, "Hardened Leather", loot.ItemName)
	assert.Equal(t, repository.RarityUnknown, loot.Rarity)
	assert.Equal(t, 1, loot.Quantity)
}

func TestParseLootLineMalformedItemId(t *testing.T) {
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	path := writeLog(t, "12/3 20:16:00  Thrall receives loot: [Broken Link]\n")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Len(t, result.Loot, 1)
	assert.Equal(t, 0, result.Loot[0].ItemId)
	assert.Equal(t, 1, result.Loot[0].Quantity)
}

func TestParseTradeLine(t *testing.T) {
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	path := writeLog(t, "12/3 20:40:00  Thrall trades item Sulfuron Hammer to Eitrigg.\n")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, "Thrall", trade.FromPlayer)
	assert.Equal(t, "Sulfuron Hammer", trade.ItemName)
	assert.Equal(t, "Eitrigg", trade.ToPlayer)
}

func TestParseEmptyFile(t *testing.T) {
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	path := writeLog(t, "")

	result, err := ParseCombatLog(path, start, end)
	assert.Nil(t, err)
	assert.Empty(t, result.Deaths)
	assert.Empty(t, result.Loot)
	assert.Empty(t, result.Trades)
	assert.Empty(t, result.Warnings)
}

func TestParseMissingFile(t *testing.T) {
	start := time.Date(2025, 12, 3, 20, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 3, 23, 0, 0, 0, time.UTC)
	_, err := ParseCombatLog(filepath.Join(t.TempDir(), "nope.log"), start, end)
	assert.NotNil(t, err)
}

func TestRarityFromColor(t *testing.T) {
	assert.Equal(t, repository.RarityCommon, RarityFromColor("ffffff"))
	assert.Equal(t, repository.RarityUncommon, RarityFromColor("1eff00"))
	assert.Equal(t, repository.RarityRare, RarityFromColor("0070dd"))
	assert.Equal(t, repository.RarityEpic, RarityFromColor("A335EE"))
	assert.Equal(t, repository.RarityLegendary, RarityFromColor("ff8000"))
	assert.Equal(t, repository.RarityUnknown, RarityFromColor("9d9d9d"))
}
