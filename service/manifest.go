package service

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// PartManifest is one [[parts]] table of a session manifest.
type PartManifest struct {
	Log          string         `toml:"log"`
	Start        time.Time      `toml:"start"`
	End          time.Time      `toml:"end"`
	Wipes        map[string]int `toml:"wipes"`
	SchedulingId string         `toml:"scheduling_id"`
	ResourceId   string         `toml:"resource_id"`
	LogReportId  string         `toml:"log_report_id"`
	VideoLink    string         `toml:"video_link"`
}

// SessionManifest is the operator-authored TOML file describing one session
// import: which raid, which logs, and the manual corrections the logs cannot
// carry (wipe counts, excluded kills).
type SessionManifest struct {
	Raid       string          `toml:"raid"`
	Session    string          `toml:"session"`
	Notes      string          `toml:"notes"`
	Exclusions []string        `toml:"exclusions"`
	Parts      []*PartManifest `toml:"parts"`
}

func LoadSessionManifest(path string) (*SessionManifest, error) {
	var manifest SessionManifest
	if _, err := toml.DecodeFile(path, &manifest); err != nil {
		return nil, fmt.Errorf("reading session manifest: %w", err)
	}
	return &manifest, nil
}

func (m *SessionManifest) ToImportInput() *ImportInput {
	input := &ImportInput{
		RaidAbbreviation: m.Raid,
		SessionKey:       m.Session,
		Notes:            m.Notes,
		Exclusions:       m.Exclusions,
		Parts:            []*PartInput{},
	}
	for _, part := range m.Parts {
		input.Parts = append(input.Parts, &PartInput{
			LogPath:      part.Log,
			Start:        part.Start,
			End:          part.End,
			ManualWipes:  part.Wipes,
			SchedulingId: optional(part.SchedulingId),
			ResourceId:   optional(part.ResourceId),
			LogReportId:  optional(part.LogReportId),
			VideoLink:    optional(part.VideoLink),
		})
	}
	return input
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
