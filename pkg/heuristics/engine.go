package heuristics

import (
	"math/rand"
	"strings"
	"time"
)

// Attribute values produced by the engine.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"

	LevelHigh   = "High"
	LevelLow    = "Low"
	LevelNormal = "Normal"
)

// Engine derives plausible demographic and clinical attributes from free-text
// disease and symptom descriptions using keyword containment plus weighted
// randomness. Assignments are stateless and independent; repeated calls with
// the same text may differ whenever the random fallback is taken, which is
// what produces diversity across synthetic profiles.
//
// The engine is not safe for concurrent use: it owns a single *rand.Rand.
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// NewEngine creates an engine over the given config and random source.
// A nil rng gets a time-seeded source; tests and reproducible runs should
// pass rand.New(rand.NewSource(seed)).
func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{cfg: cfg, rng: rng}
}

// containsAnyKeyword reports whether any keyword from any group appears in the
// text, case-insensitively.
func containsAnyKeyword(text string, groups ...[]string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, group := range groups {
		for _, kw := range group {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// AssignGender returns "Female" when a female or mature-female keyword matches,
// "Male" when a male or mature-male keyword matches, else a uniform coin flip.
// Female groups are checked first; the sets are not mutually exclusive and the
// first match wins.
func (e *Engine) AssignGender(text string) string {
	if containsAnyKeyword(text, e.cfg.Gender.Female, e.cfg.Gender.MatureFemale) {
		return GenderFemale
	}
	if containsAnyKeyword(text, e.cfg.Gender.Male, e.cfg.Gender.MatureMale) {
		return GenderMale
	}
	if e.rng.Intn(2) == 0 {
		return GenderMale
	}
	return GenderFemale
}

// AssignAge picks an age from the bracket of the first matching keyword group,
// checked in fixed priority order, falling back to the default bracket.
func (e *Engine) AssignAge(text string) int {
	switch {
	case containsAnyKeyword(text, e.cfg.Gender.Female):
		return e.randInRange(e.cfg.Age.Female)
	case containsAnyKeyword(text, e.cfg.Gender.MatureFemale):
		return e.randInRange(e.cfg.Age.MatureFemale)
	case containsAnyKeyword(text, e.cfg.Gender.Male):
		return e.randInRange(e.cfg.Age.Male)
	case containsAnyKeyword(text, e.cfg.Gender.MatureMale):
		return e.randInRange(e.cfg.Age.MatureMale)
	case containsAnyKeyword(text, e.cfg.Elderly):
		return e.randInRange(e.cfg.Age.Elderly)
	}
	return e.randInRange(e.cfg.Age.Default)
}

// AssignBloodPressure returns High or Low when a keyword forces it, otherwise
// draws Normal/High/Low with weights 0.7/0.2/0.1.
func (e *Engine) AssignBloodPressure(text string) string {
	if containsAnyKeyword(text, e.cfg.BloodPressure.High) {
		return LevelHigh
	}
	if containsAnyKeyword(text, e.cfg.BloodPressure.Low) {
		return LevelLow
	}
	return e.weightedChoice(
		[]string{LevelNormal, LevelHigh, LevelLow},
		[]float64{0.7, 0.2, 0.1},
	)
}

// AssignCholesterol returns High when a keyword forces it, otherwise draws
// Normal/High with weights 0.8/0.2.
func (e *Engine) AssignCholesterol(text string) string {
	if containsAnyKeyword(text, e.cfg.Cholesterol.High) {
		return LevelHigh
	}
	return e.weightedChoice(
		[]string{LevelNormal, LevelHigh},
		[]float64{0.8, 0.2},
	)
}

// randInRange draws a uniform integer from the inclusive range.
func (e *Engine) randInRange(r Range) int {
	if !r.valid() {
		return r.Min()
	}
	return e.rng.Intn(r.Max()-r.Min()+1) + r.Min()
}

// weightedChoice draws one value with the given relative weights.
func (e *Engine) weightedChoice(values []string, weights []float64) string {
	var total float64
	for _, w := range weights {
		total += w
	}
	draw := e.rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if draw < cum {
			return values[i]
		}
	}
	return values[len(values)-1]
}
