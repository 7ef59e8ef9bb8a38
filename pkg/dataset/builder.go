// Package dataset fuses real matched patient profiles with synthetic profiles
// and renders the result into model-ready training examples.
package dataset

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/arclinic/medsynth/pkg/match"
	"github.com/arclinic/medsynth/pkg/profile"
	"github.com/arclinic/medsynth/pkg/refdata"
)

// DefaultShuffleSeed fixes the final shuffle so identical inputs always
// produce the same row order.
const DefaultShuffleSeed = 42

// Provenance labels for fused rows. Rendering treats both identically; the
// label exists for persistence and reporting.
const (
	SourceReal      = "real"
	SourceSynthetic = "synthetic"
)

// Row is one fused profile before rendering. Disease always holds the
// canonical reference name regardless of provenance.
type Row struct {
	Disease       string
	Symptoms      string
	Age           int
	Gender        string
	BloodPressure string
	Cholesterol   string
	Source        string
}

// TrainingExample is one rendered dataset row.
type TrainingExample struct {
	InputText string
	Target    string
	Source    string
}

// Builder combines matched real profiles with synthetic ones. Every reference
// disease receives synthetic coverage whether or not any real record matched
// it.
type Builder struct {
	matcher *match.Matcher
	factory *profile.Factory
	refs    []refdata.Entry

	// ShuffleSeed controls the deterministic final shuffle.
	ShuffleSeed int64
}

// NewBuilder wires a matcher, a profile factory and the reference entries the
// synthetic side iterates over.
func NewBuilder(matcher *match.Matcher, factory *profile.Factory, refs []refdata.Entry) *Builder {
	return &Builder{
		matcher:     matcher,
		factory:     factory,
		refs:        refs,
		ShuffleSeed: DefaultShuffleSeed,
	}
}

// Build produces the full training dataset: matched real rows, then
// nSyntheticVersions synthetic rows per reference disease, shuffled with the
// fixed seed and rendered. nSyntheticVersions < 0 selects the factory default;
// 0 yields a real-only dataset.
func (b *Builder) Build(nSyntheticVersions int) []TrainingExample {
	rows := b.fuse(nSyntheticVersions)

	rng := rand.New(rand.NewSource(b.ShuffleSeed))
	rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})

	out := make([]TrainingExample, len(rows))
	for i, r := range rows {
		out[i] = TrainingExample{
			InputText: BuildInputText(r),
			Target:    r.Disease,
			Source:    r.Source,
		}
	}
	return out
}

// Rows returns the fused, shuffled rows without rendering them. Persistence
// uses this to keep structured fields alongside the rendered text.
func (b *Builder) Rows(nSyntheticVersions int) []Row {
	rows := b.fuse(nSyntheticVersions)
	rng := rand.New(rand.NewSource(b.ShuffleSeed))
	rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})
	return rows
}

func (b *Builder) fuse(nSyntheticVersions int) []Row {
	var rows []Row
	for _, mp := range b.matcher.MapProfiles() {
		rows = append(rows, Row{
			Disease:       mp.Disease,
			Symptoms:      mp.Symptoms,
			Age:           mp.Age,
			Gender:        mp.Gender,
			BloodPressure: mp.BloodPressure,
			Cholesterol:   mp.Cholesterol,
			Source:        SourceReal,
		})
	}
	for _, e := range b.refs {
		for _, p := range b.factory.GenerateProfiles(e.Name, e.Symptoms, nSyntheticVersions) {
			rows = append(rows, Row{
				Disease:       p.Disease,
				Symptoms:      p.Symptoms,
				Age:           p.Age,
				Gender:        p.Gender,
				BloodPressure: p.BloodPressure,
				Cholesterol:   p.Cholesterol,
				Source:        SourceSynthetic,
			})
		}
	}
	return rows
}

// BuildInputText renders one fused row into the uniform sentence template.
// The template is identical for real and synthetic rows so a trained model
// cannot tell the provenances apart.
func BuildInputText(r Row) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The patient is a %d-year-old %s.", r.Age, strings.ToLower(r.Gender))

	bp := strings.ToLower(r.BloodPressure)
	switch {
	case strings.Contains(bp, "high"):
		sb.WriteString(" The patient has high blood pressure.")
	case strings.Contains(bp, "low"):
		sb.WriteString(" The patient has low blood pressure.")
	default:
		sb.WriteString(" The patient has normal blood pressure.")
	}

	chol := strings.ToLower(r.Cholesterol)
	switch {
	case strings.Contains(chol, "high"):
		sb.WriteString(" The patient has high cholesterol.")
	case strings.Contains(chol, "low"):
		sb.WriteString(" The patient has low cholesterol.")
	default:
		sb.WriteString(" The patient has normal cholesterol.")
	}

	sb.WriteString(" Reported symptoms include ")
	sb.WriteString(strings.ToLower(strings.TrimSpace(r.Symptoms)))
	sb.WriteString(".")
	return sb.String()
}
