package parser

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Azzc0/fika-guild.xyz/metrics"
	"github.com/Azzc0/fika-guild.xyz/repository"
)

// Combat logs are newline-delimited text with no enclosing structure; every
// event kind is recognized by its own line grammar. Timestamps are year-less
// (month/day hour:minute:second with an optional fraction), so the year comes
// from the recording segment's declared start.
var (
	deathLinePattern  = regexp.MustCompile(`^\s*(\d{1,2})/(\d{1,2}) (\d{1,2}):(\d{2}):(\d{2})(?:\.(\d{1,3}))?  (.+) dies\.$`)
	lootPlayerPattern = regexp.MustCompile(`([\p{L}][\p{L}'-]*) receives loot:`)
	itemIdPattern     = regexp.MustCompile(`\|Hitem:(\d+)`)
	itemNamePattern   = regexp.MustCompile(`\|h\[([^\]]+)\]\|h`)
	colorCodePattern  = regexp.MustCompile(`\|c(?:[fF]{2})?([0-9a-fA-F]{6})`)
	quantityPattern   = regexp.MustCompile(`\|rx(\d+)`)
	tradePattern      = regexp.MustCompile(`([\p{L}][\p{L}'-]*) trades item (.+?) to ([\p{L}][\p{L}'-]*)\.`)
)

// DeathAggregate counts how often one entity died within a segment and keeps
// the latest death timestamp.
type DeathAggregate struct {
	EntityName  string
	Count       int
	LastDeathAt time.Time
}

type LootEvent struct {
	PlayerName string
	ItemId     int
	ItemName   string
	Quantity   int
	Rarity     repository.Rarity
}

// TradeEvent is retained for reporting only and is not persisted as a loot
// transfer.
type TradeEvent struct {
	FromPlayer string
	ToPlayer   string
	ItemName   string
}

type Result struct {
	Deaths   []*DeathAggregate
	Loot     []*LootEvent
	Trades   []*TradeEvent
	Warnings []string
}

// ParseCombatLog reads one combat-log file and extracts death, loot and trade
// events. start supplies the year for the year-less log timestamps; deaths
// whose synthesized timestamp falls outside [start, end] are warned about but
// kept, since clipping would under-report kills right at the segment borders.
// An empty or event-free file yields an empty result, not an error.
func ParseCombatLog(path string, start, end time.Time) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening combat log: %w", err)
	}
	defer file.Close()

	deaths := make(map[string]*DeathAggregate)
	result := &Result{
		Loot:   []*LootEvent{},
		Trades: []*TradeEvent{},
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		metrics.LogLinesScanned.Inc()

		if match := deathLinePattern.FindStringSubmatch(line); match != nil {
			parseDeathLine(match, start, deaths)
			continue
		}
		if strings.Contains(line, "receives loot:") {
			if loot := parseLootLine(line); loot != nil {
				result.Loot = append(result.Loot, loot)
				metrics.LootEventsParsed.Inc()
			}
			continue
		}
		if match := tradePattern.FindStringSubmatch(line); match != nil {
			result.Trades = append(result.Trades, &TradeEvent{
				FromPlayer: match[1],
				ItemName:   match[2],
				ToPlayer:   match[3],
			})
			metrics.TradeEventsParsed.Inc()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading combat log: %w", err)
	}

	for _, death := range deaths {
		if death.LastDeathAt.Before(start) || death.LastDeathAt.After(end) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"death of %q at %s is outside the segment window [%s, %s]; keeping it",
				death.EntityName, death.LastDeathAt.Format(time.RFC3339),
				start.Format(time.RFC3339), end.Format(time.RFC3339)))
			metrics.OutOfWindowDeaths.Inc()
		}
		result.Deaths = append(result.Deaths, death)
	}
	sort.Slice(result.Deaths, func(i, j int) bool {
		return result.Deaths[i].EntityName < result.Deaths[j].EntityName
	})
	return result, nil
}

func parseDeathLine(match []string, start time.Time, deaths map[string]*DeathAggregate) {
	month, _ := strconv.Atoi(match[1])
	day, _ := strconv.Atoi(match[2])
	hour, _ := strconv.Atoi(match[3])
	minute, _ := strconv.Atoi(match[4])
	second, _ := strconv.Atoi(match[5])
	millis := 0
	if match[6] != "" {
		// fraction may be 1-3 digits, pad to milliseconds
		frac := match[6] + strings.Repeat("0", 3-len(match[6]))
		millis, _ = strconv.Atoi(frac)
	}
	entity := match[7]
	timestamp := time.Date(start.Year(), time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), start.Location())

	death, ok := deaths[entity]
	if !ok {
		death = &DeathAggregate{EntityName: entity}
		deaths[entity] = death
	}
	death.Count++
	if timestamp.After(death.LastDeathAt) {
		death.LastDeathAt = timestamp
	}
	metrics.DeathEventsParsed.Inc()
}

// parseLootLine extracts one loot pickup. Malformed item ids or quantities
// fall back to defaults (id 0, quantity 1) instead of failing the line;
// unrecognized rarity colors become Unknown.
func parseLootLine(line string) *LootEvent {
	playerMatch := lootPlayerPattern.FindStringSubmatch(line)
	if playerMatch == nil {
		return nil
	}
	loot := &LootEvent{
		PlayerName: playerMatch[1],
		Quantity:   1,
		Rarity:     repository.RarityUnknown,
	}
	if match := itemIdPattern.FindStringSubmatch(line); match != nil {
		if id, err := strconv.Atoi(match[1]); err == nil {
			loot.ItemId = id
		}
	}
	if match := itemNamePattern.FindStringSubmatch(line); match != nil {
		loot.ItemName = match[1]
	}
	if match := colorCodePattern.FindStringSubmatch(line); match != nil {
		loot.Rarity = RarityFromColor(match[1])
	}
	if match := quantityPattern.FindStringSubmatch(line); match != nil {
		if qty, err := strconv.Atoi(match[1]); err == nil && qty > 0 {
			loot.Quantity = qty
		}
	}
	return loot
}
