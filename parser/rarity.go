package parser

import (
	"strings"

	"github.com/Azzc0/fika-guild.xyz/repository"
)

// Item rarity is encoded in the loot line's color code. Trash-tier items
// never show up in loot lines, so anything unmatched (including grey)
// resolves to Unknown.
var rarityColors = map[string]repository.Rarity{
	"ffffff": repository.RarityCommon,
	"1eff00": repository.RarityUncommon,
	"0070dd": repository.RarityRare,
	"a335ee": repository.RarityEpic,
	"ff8000": repository.RarityLegendary,
}

func RarityFromColor(hexColor string) repository.Rarity {
	if rarity, ok := rarityColors[strings.ToLower(hexColor)]; ok {
		return rarity
	}
	return repository.RarityUnknown
}
