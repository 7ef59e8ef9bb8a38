// Package profile generates synthetic patient profiles for a disease and its
// symptom text. Each attribute is sampled independently through the heuristics
// engine; no cross-field consistency is enforced, which is a deliberate
// simplification of the synthesis model.
package profile

import (
	"github.com/arclinic/medsynth/pkg/heuristics"
)

// Profile is one fabricated patient record. Profiles have no persistent
// identity; they are consumed immediately by the dataset builder.
type Profile struct {
	Disease       string
	Symptoms      string
	Gender        string
	Age           int
	BloodPressure string
	Cholesterol   string
}

// Factory produces synthetic profiles using a heuristics engine.
type Factory struct {
	engine *heuristics.Engine
	// Versions is the profile count used when GenerateProfiles is called
	// with a negative count.
	Versions int
}

// NewFactory creates a factory. versions <= 0 falls back to 5, matching the
// default number of synthetic variants per disease.
func NewFactory(engine *heuristics.Engine, versions int) *Factory {
	if versions <= 0 {
		versions = 5
	}
	return &Factory{engine: engine, Versions: versions}
}

// GenerateProfile fabricates a single profile for the disease/symptoms pair.
// All four heuristic assignments run against the concatenated text.
func (f *Factory) GenerateProfile(disease, symptoms string) Profile {
	text := disease + " " + symptoms
	return Profile{
		Disease:       disease,
		Symptoms:      symptoms,
		Gender:        f.engine.AssignGender(text),
		Age:           f.engine.AssignAge(text),
		BloodPressure: f.engine.AssignBloodPressure(text),
		Cholesterol:   f.engine.AssignCholesterol(text),
	}
}

// GenerateProfiles fabricates count independent profiles. A negative count
// uses the factory's configured Versions; count zero yields an empty slice.
// Profiles are sampled independently, so duplicates can occur by chance.
func (f *Factory) GenerateProfiles(disease, symptoms string, count int) []Profile {
	if count < 0 {
		count = f.Versions
	}
	out := make([]Profile, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, f.GenerateProfile(disease, symptoms))
	}
	return out
}
