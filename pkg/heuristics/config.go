package heuristics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Range is an inclusive [min, max] age interval, stored as a two-element JSON array.
type Range [2]int

// Min returns the lower bound of the range.
func (r Range) Min() int { return r[0] }

// Max returns the upper bound of the range.
func (r Range) Max() int { return r[1] }

func (r Range) valid() bool { return r[0] > 0 && r[1] >= r[0] }

// GenderKeywords holds the keyword groups used for gender assignment.
// The same groups drive the age-bracket selection, so every group is mandatory.
type GenderKeywords struct {
	Female       []string `json:"female"`
	MatureFemale []string `json:"mature_female"`
	Male         []string `json:"male"`
	MatureMale   []string `json:"mature_male"`
}

// AgeRanges maps each keyword group to the age bracket sampled when it matches.
type AgeRanges struct {
	Female       Range `json:"female"`
	MatureFemale Range `json:"mature_female"`
	Male         Range `json:"male"`
	MatureMale   Range `json:"mature_male"`
	Elderly      Range `json:"elderly"`
	Default      Range `json:"default"`
}

// BloodPressureKeywords holds keyword lists that force a blood-pressure category.
type BloodPressureKeywords struct {
	High []string `json:"high"`
	Low  []string `json:"low"`
}

// CholesterolKeywords holds keyword lists that force a cholesterol category.
type CholesterolKeywords struct {
	High []string `json:"high"`
}

// Config is the keyword-heuristics configuration. It is loaded once at process
// start and passed by value into NewEngine; nothing mutates it afterwards.
type Config struct {
	Gender        GenderKeywords        `json:"gender"`
	Age           AgeRanges             `json:"age"`
	BloodPressure BloodPressureKeywords `json:"blood_pressure"`
	Cholesterol   CholesterolKeywords   `json:"cholesterol"`
	// Elderly keywords select the elderly age bracket. Optional; an absent
	// list simply means no text routes to that bracket.
	Elderly []string `json:"elderly,omitempty"`
}

// DefaultConfig returns the built-in heuristics used when no config file is supplied.
func DefaultConfig() Config {
	return Config{
		Gender: GenderKeywords{
			Female:       []string{"pregnan", "menstru", "ovarian", "uterine", "pcos", "endometri", "vaginal"},
			MatureFemale: []string{"menopaus", "cervical cancer", "breast cancer", "osteoporos"},
			Male:         []string{"testicul", "erectile", "gynecomastia"},
			MatureMale:   []string{"prostat", "benign prostatic"},
		},
		Age: AgeRanges{
			Female:       Range{16, 45},
			MatureFemale: Range{40, 70},
			Male:         Range{18, 50},
			MatureMale:   Range{45, 78},
			Elderly:      Range{60, 90},
			Default:      Range{18, 80},
		},
		BloodPressure: BloodPressureKeywords{
			High: []string{"hypertension", "high blood pressure", "stroke", "heart attack", "aneurysm", "kidney disease"},
			Low:  []string{"hypotension", "low blood pressure", "fainting", "dehydration", "shock"},
		},
		Cholesterol: CholesterolKeywords{
			High: []string{"cholesterol", "atheroscleros", "coronary", "heart disease", "obesity", "fatty liver"},
		},
		Elderly: []string{"alzheimer", "dementia", "parkinson", "cataract", "arthritis", "glaucoma"},
	}
}

func (c *Config) applyDefaults() {
	if c.Age.Elderly == (Range{}) {
		c.Age.Elderly = Range{60, 90}
	}
}

// Validate checks that every mandatory category is present. A missing category
// must be fatal: treating it as "no keywords" would silently disable a whole
// assignment branch.
func (c Config) Validate() error {
	groups := []struct {
		name string
		list []string
	}{
		{"gender.female", c.Gender.Female},
		{"gender.mature_female", c.Gender.MatureFemale},
		{"gender.male", c.Gender.Male},
		{"gender.mature_male", c.Gender.MatureMale},
		{"blood_pressure.high", c.BloodPressure.High},
		{"blood_pressure.low", c.BloodPressure.Low},
		{"cholesterol.high", c.Cholesterol.High},
	}
	for _, g := range groups {
		if len(g.list) == 0 {
			return fmt.Errorf("heuristics config: %s keywords missing", g.name)
		}
	}

	ranges := []struct {
		name string
		r    Range
	}{
		{"age.female", c.Age.Female},
		{"age.mature_female", c.Age.MatureFemale},
		{"age.male", c.Age.Male},
		{"age.mature_male", c.Age.MatureMale},
		{"age.elderly", c.Age.Elderly},
		{"age.default", c.Age.Default},
	}
	for _, g := range ranges {
		if !g.r.valid() {
			return fmt.Errorf("heuristics config: %s range [%d, %d] is invalid", g.name, g.r[0], g.r[1])
		}
	}
	return nil
}

// LoadConfig reads and validates a heuristics config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read heuristics config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode heuristics config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EnsureConfigFile writes the default config to path when no file exists yet,
// giving users a starting point for editing keyword lists. An existing file is
// left untouched, even if invalid; LoadConfig reports that separately.
func EnsureConfigFile(path string) error {
	if path == "" {
		return fmt.Errorf("heuristics config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create heuristics config dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode heuristics config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write heuristics config: %w", err)
	}
	return nil
}
