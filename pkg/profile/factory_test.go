package profile

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/arclinic/medsynth/pkg/heuristics"
)

func newTestFactory(seed int64, versions int) *Factory {
	engine := heuristics.NewEngine(heuristics.DefaultConfig(), rand.New(rand.NewSource(seed)))
	return NewFactory(engine, versions)
}

func TestGenerateProfiles_CountAndValidity(t *testing.T) {
	f := newTestFactory(1, 5)
	profiles := f.GenerateProfiles("Migraine", "throbbing headache, nausea", 5)
	if len(profiles) != 5 {
		t.Fatalf("expected 5 profiles, got %d", len(profiles))
	}
	cfg := heuristics.DefaultConfig()
	for i, p := range profiles {
		if p.Disease != "Migraine" {
			t.Fatalf("profile %d: wrong disease %q", i, p.Disease)
		}
		if p.Symptoms != "throbbing headache, nausea" {
			t.Fatalf("profile %d: wrong symptoms %q", i, p.Symptoms)
		}
		if p.Gender != heuristics.GenderMale && p.Gender != heuristics.GenderFemale {
			t.Fatalf("profile %d: invalid gender %q", i, p.Gender)
		}
		if p.Age < cfg.Age.Default.Min() || p.Age > cfg.Age.Default.Max() {
			t.Fatalf("profile %d: age %d outside default range", i, p.Age)
		}
		switch p.BloodPressure {
		case heuristics.LevelHigh, heuristics.LevelLow, heuristics.LevelNormal:
		default:
			t.Fatalf("profile %d: invalid blood pressure %q", i, p.BloodPressure)
		}
		switch p.Cholesterol {
		case heuristics.LevelHigh, heuristics.LevelNormal:
		default:
			t.Fatalf("profile %d: invalid cholesterol %q", i, p.Cholesterol)
		}
	}
}

func TestGenerateProfiles_ZeroCount(t *testing.T) {
	f := newTestFactory(1, 5)
	if got := f.GenerateProfiles("Flu", "fever", 0); len(got) != 0 {
		t.Fatalf("expected no profiles for count 0, got %d", len(got))
	}
}

func TestGenerateProfiles_NegativeCountUsesVersions(t *testing.T) {
	f := newTestFactory(1, 3)
	if got := f.GenerateProfiles("Flu", "fever", -1); len(got) != 3 {
		t.Fatalf("expected Versions=3 profiles, got %d", len(got))
	}
}

func TestGenerateProfiles_ReproducibleWithSeed(t *testing.T) {
	a := newTestFactory(99, 5).GenerateProfiles("Anemia", "fatigue, pale skin", 10)
	b := newTestFactory(99, 5).GenerateProfiles("Anemia", "fatigue, pale skin", 10)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different profiles:\n%v\n%v", a, b)
	}
}

func TestNewFactory_DefaultVersions(t *testing.T) {
	f := newTestFactory(1, 0)
	if f.Versions != 5 {
		t.Fatalf("expected default versions 5, got %d", f.Versions)
	}
}
