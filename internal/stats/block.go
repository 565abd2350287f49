// Package stats loads creature stat blocks and derives the modifier values
// substituted for expression shorthand such as "dex" and "pb".
package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

// Abilities holds the six ability scores of a stat block.
type Abilities struct {
	Str int `yaml:"str"`
	Dex int `yaml:"dex"`
	Con int `yaml:"con"`
	Int int `yaml:"int"`
	Wis int `yaml:"wis"`
	Cha int `yaml:"cha"`
}

// Block is a creature's stat block loaded from YAML.
type Block struct {
	Name      string    `yaml:"name"`
	Level     int       `yaml:"level"`
	Abilities Abilities `yaml:"abilities"`
	// ProficiencyBonus overrides the level-derived bonus when non-zero.
	ProficiencyBonus int `yaml:"proficiency_bonus"`
}

// Validate checks that the block satisfies basic invariants.
//
// Precondition: b must not be nil.
// Postcondition: Returns nil iff Name is non-empty, every score is in [1, 30],
// Level is in [0, 20] and ProficiencyBonus >= 0.
func (b *Block) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("stat block: name must not be empty")
	}
	scores := []struct {
		name  string
		score int
	}{
		{"str", b.Abilities.Str}, {"dex", b.Abilities.Dex}, {"con", b.Abilities.Con},
		{"int", b.Abilities.Int}, {"wis", b.Abilities.Wis}, {"cha", b.Abilities.Cha},
	}
	for _, s := range scores {
		if s.score < 1 || s.score > 30 {
			return fmt.Errorf("stat block %q: %s must be in [1, 30], got %d", b.Name, s.name, s.score)
		}
	}
	if b.Level < 0 || b.Level > 20 {
		return fmt.Errorf("stat block %q: level must be in [0, 20], got %d", b.Name, b.Level)
	}
	if b.ProficiencyBonus < 0 {
		return fmt.Errorf("stat block %q: proficiency_bonus must be >= 0", b.Name)
	}
	return nil
}

// Proficiency returns the explicit proficiency bonus, or the one derived from Level.
// A block with neither has a bonus of 0.
func (b *Block) Proficiency() int {
	if b.ProficiencyBonus > 0 {
		return b.ProficiencyBonus
	}
	if b.Level >= 1 {
		return ProficiencyBonus(b.Level)
	}
	return 0
}

// Modifiers converts the block into shorthand substitution values.
//
// Postcondition: each ability modifier equals AbilityMod of its score.
func (b *Block) Modifiers() dice.StatModifiers {
	return dice.StatModifiers{
		Str:         AbilityMod(b.Abilities.Str),
		Dex:         AbilityMod(b.Abilities.Dex),
		Con:         AbilityMod(b.Abilities.Con),
		Int:         AbilityMod(b.Abilities.Int),
		Wis:         AbilityMod(b.Abilities.Wis),
		Cha:         AbilityMod(b.Abilities.Cha),
		Proficiency: b.Proficiency(),
	}
}

// AbilityMod computes the standard ability modifier using floor division: floor((score - 10) / 2).
// Postcondition: Returns floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// ProficiencyBonus returns the proficiency bonus for a character level.
//
// Precondition: level >= 1.
// Postcondition: Returns >= 2.
func ProficiencyBonus(level int) int {
	return 2 + (level-1)/4
}

// LoadBlockFromBytes parses a single stat block from raw YAML bytes.
//
// Postcondition: Returns a validated *Block, or an error.
func LoadBlockFromBytes(data []byte) (*Block, error) {
	var b Block
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing stat block YAML: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Load reads stat blocks from path, which may be a single YAML file or a
// directory of *.yaml files.
//
// Postcondition: Returns every block or an error on the first read, parse or
// validate failure; block names are unique case-insensitively.
func Load(path string) ([]*Block, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading stats %q: %w", path, err)
	}
	files := []string{path}
	if info.IsDir() {
		if files, err = yamlFiles(path); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]string, len(files))
	blocks := make([]*Block, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", file, err)
		}
		b, err := LoadBlockFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", file, err)
		}
		key := strings.ToLower(b.Name)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("stat block %q defined in both %q and %q", b.Name, prev, file)
		}
		seen[key] = file
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// Find returns the block named name, matched case-insensitively.
func Find(blocks []*Block, name string) (*Block, bool) {
	for _, b := range blocks {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return nil, false
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stats dir %q: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
