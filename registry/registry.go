package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EncounterDef is one boss fight and the in-game actors whose death counts as
// completing it. Most encounters have a single entity with the same name; a
// council-style fight lists several.
type EncounterDef struct {
	Name     string   `yaml:"name"`
	Entities []string `yaml:"entities"`
}

type RaidDef struct {
	Name         string         `yaml:"name"`
	Abbreviation string         `yaml:"abbreviation"`
	Description  string         `yaml:"description"`
	Encounters   []EncounterDef `yaml:"encounters"`
}

// Registry is the hand-maintained raid catalog. It is loaded once and passed
// explicitly to whatever needs it, never looked up through package state.
type Registry struct {
	Raids []RaidDef `yaml:"raids"`
}

func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry file: %w", err)
	}
	var reg Registry
	if err := yaml.Unmarshal(b, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry file: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Registry) Validate() error {
	seenAbbrevs := make(map[string]bool)
	for _, raid := range r.Raids {
		if raid.Abbreviation == "" || raid.Name == "" {
			return fmt.Errorf("raid %q must have both a name and an abbreviation", raid.Name)
		}
		if seenAbbrevs[raid.Abbreviation] {
			return fmt.Errorf("duplicate raid abbreviation %q", raid.Abbreviation)
		}
		seenAbbrevs[raid.Abbreviation] = true

		seenEncounters := make(map[string]bool)
		entityOwner := make(map[string]string)
		for _, encounter := range raid.Encounters {
			if encounter.Name == "" {
				return fmt.Errorf("raid %q has an encounter without a name", raid.Abbreviation)
			}
			if seenEncounters[encounter.Name] {
				return fmt.Errorf("raid %q lists encounter %q twice", raid.Abbreviation, encounter.Name)
			}
			seenEncounters[encounter.Name] = true
			for _, entity := range encounter.Entities {
				if owner, ok := entityOwner[entity]; ok {
					return fmt.Errorf("raid %q maps entity %q to both %q and %q", raid.Abbreviation, entity, owner, encounter.Name)
				}
				entityOwner[entity] = encounter.Name
			}
		}
	}
	return nil
}

func (r *Registry) Raid(abbreviation string) (*RaidDef, bool) {
	for i := range r.Raids {
		if r.Raids[i].Abbreviation == abbreviation {
			return &r.Raids[i], true
		}
	}
	return nil, false
}

// EntityEncounters returns the entity name -> encounter name index used for
// attributing log deaths to encounters.
func (d *RaidDef) EntityEncounters() map[string]string {
	index := make(map[string]string)
	for _, encounter := range d.Encounters {
		for _, entity := range encounter.Entities {
			index[entity] = encounter.Name
		}
	}
	return index
}

func (d *RaidDef) EncounterNames() []string {
	names := make([]string, 0, len(d.Encounters))
	for _, encounter := range d.Encounters {
		names = append(names, encounter.Name)
	}
	return names
}
