// Package match links a real-world patient-outcomes dataset to the canonical
// disease-symptom reference dataset by fuzzy name matching.
//
// The similarity metric is pinned to the indel ratio: Levenshtein distance
// with substitutions costing two, normalized by the summed string lengths and
// scaled to 0–100. Other edit-distance ratios can score slightly differently
// near the acceptance threshold, which is why the threshold is configurable.
package match

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/strutil/metrics"

	"github.com/arclinic/medsynth/pkg/refdata"
)

// DefaultThreshold is the minimum 0–100 similarity score for an accepted match.
const DefaultThreshold = 65.0

// OutcomeRecord is one row of the patient-outcomes dataset.
type OutcomeRecord struct {
	Disease       string
	Outcome       string
	Symptoms      string
	Age           int
	Gender        string
	BloodPressure string
	Cholesterol   string
}

// MatchedProfile is an outcome record inner-joined with its best reference
// match. Disease always carries the canonical reference name; any raw label
// from the outcome row is discarded.
type MatchedProfile struct {
	Disease       string
	Symptoms      string
	Age           int
	Gender        string
	BloodPressure string
	Cholesterol   string
	Code          string
	Treatments    string
	Score         float64
}

// Matcher resolves outcome records against the reference dataset.
// Construction precomputes normalized names for both sides; matching itself is
// lazy and cached, so MapProfiles and UnmatchedDiseases share one pass.
type Matcher struct {
	outcomes  []OutcomeRecord
	threshold float64
	lev       *metrics.Levenshtein

	// normNames preserves reference dataset order so that score ties resolve
	// to the first-encountered candidate. Entries with an empty normal form
	// are excluded and can never match.
	normNames   []string
	normToEntry map[string]refdata.Entry

	matched      bool
	matches      []outcomeMatch
	matchedNorms map[string]struct{}
}

type outcomeMatch struct {
	rec   OutcomeRecord
	norm  string
	score float64
	ok    bool
}

// NewMatcher builds a matcher over in-memory datasets. Outcome records are
// filtered to positive outcomes (case-insensitive). threshold <= 0 selects
// DefaultThreshold.
func NewMatcher(outcomes []OutcomeRecord, refs []refdata.Entry, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	lev := metrics.NewLevenshtein()
	// A substitution counts as delete+insert, turning the distance into the
	// indel distance the ratio below expects.
	lev.ReplaceCost = 2
	m := &Matcher{
		threshold:   threshold,
		lev:         lev,
		normToEntry: make(map[string]refdata.Entry, len(refs)),
	}
	for _, o := range outcomes {
		if strings.EqualFold(strings.TrimSpace(o.Outcome), "positive") {
			m.outcomes = append(m.outcomes, o)
		}
	}
	for _, e := range refs {
		n := Normalize(e.Name)
		if n == "" {
			continue
		}
		if _, dup := m.normToEntry[n]; dup {
			continue
		}
		m.normToEntry[n] = e
		m.normNames = append(m.normNames, n)
	}
	return m
}

// NewMatcherFromFile loads the outcomes dataset from a CSV file and builds a
// matcher. A missing or malformed file fails here, at construction.
func NewMatcherFromFile(outcomesPath string, refs []refdata.Entry, threshold float64) (*Matcher, error) {
	outcomes, err := LoadOutcomes(outcomesPath)
	if err != nil {
		return nil, err
	}
	return NewMatcher(outcomes, refs, threshold), nil
}

// PositiveOutcomes returns the number of positive-outcome records retained.
func (m *Matcher) PositiveOutcomes() int { return len(m.outcomes) }

// References returns the number of usable reference diseases.
func (m *Matcher) References() int { return len(m.normNames) }

// Similarity scores two normalized names on the 0–100 indel-ratio scale.
func (m *Matcher) Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la+lb == 0 {
		return 100
	}
	d := m.lev.Distance(a, b)
	return (1 - float64(d)/float64(la+lb)) * 100
}

// FindClosestDisease returns the canonical name of the best-scoring reference
// disease for a normalized query, or ok=false when no candidate reaches the
// threshold. An empty query never matches.
func (m *Matcher) FindClosestDisease(normName string) (string, bool) {
	norm, ok := m.findClosestNorm(normName)
	if !ok {
		return "", false
	}
	return m.normToEntry[norm].Name, true
}

func (m *Matcher) findClosestNorm(normName string) (string, bool) {
	norm, score := m.bestCandidate(normName)
	if norm == "" || score < m.threshold {
		return "", false
	}
	return norm, true
}

func (m *Matcher) bestCandidate(normName string) (string, float64) {
	if normName == "" {
		return "", 0
	}
	bestNorm, bestScore := "", -1.0
	for _, cand := range m.normNames {
		// Strictly-greater comparison keeps the first candidate in reference
		// dataset order on ties.
		if score := m.Similarity(normName, cand); score > bestScore {
			bestNorm, bestScore = cand, score
		}
	}
	return bestNorm, bestScore
}

// matchAll resolves every retained outcome record once and caches the result.
func (m *Matcher) matchAll() {
	if m.matched {
		return
	}
	m.matches = make([]outcomeMatch, 0, len(m.outcomes))
	m.matchedNorms = make(map[string]struct{})
	for _, o := range m.outcomes {
		om := outcomeMatch{rec: o}
		norm, score := m.bestCandidate(Normalize(o.Disease))
		if norm != "" && score >= m.threshold {
			om.norm, om.score, om.ok = norm, score, true
			m.matchedNorms[norm] = struct{}{}
		}
		m.matches = append(m.matches, om)
	}
	m.matched = true
}

// MapProfiles inner-joins each matched outcome record with its reference
// entry. Records without an accepted match are dropped silently; use
// UnmatchedDiseases for visibility. The output count never exceeds the number
// of positive-outcome input rows.
func (m *Matcher) MapProfiles() []MatchedProfile {
	m.matchAll()
	var out []MatchedProfile
	for _, om := range m.matches {
		if !om.ok {
			continue
		}
		e := m.normToEntry[om.norm]
		symptoms := strings.TrimSpace(om.rec.Symptoms)
		if symptoms == "" {
			symptoms = e.Symptoms
		}
		out = append(out, MatchedProfile{
			Disease:       e.Name,
			Symptoms:      symptoms,
			Age:           om.rec.Age,
			Gender:        om.rec.Gender,
			BloodPressure: om.rec.BloodPressure,
			Cholesterol:   om.rec.Cholesterol,
			Code:          e.Code,
			Treatments:    e.Treatments,
			Score:         om.score,
		})
	}
	return out
}

// UnmatchedDiseases returns the normalized reference names that never became a
// match target for any outcome record. These diseases rely entirely on
// synthetic coverage.
func (m *Matcher) UnmatchedDiseases() map[string]struct{} {
	m.matchAll()
	out := make(map[string]struct{})
	for _, n := range m.normNames {
		if _, hit := m.matchedNorms[n]; !hit {
			out[n] = struct{}{}
		}
	}
	return out
}

// LoadOutcomes reads the patient-outcomes CSV. Required columns: Disease,
// Outcome Variable, Age, Gender, Blood Pressure, Cholesterol Level. Symptoms
// is optional. A missing file or absent required column is fatal; a row with
// an unparseable age degrades to age 0 rather than aborting the run.
func LoadOutcomes(path string) ([]OutcomeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open outcomes dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read outcomes header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	required := []string{"disease", "outcome variable", "age", "gender", "blood pressure", "cholesterol level"}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("outcomes dataset %s: missing column %q", path, c)
		}
	}
	sympIdx, hasSymp := cols["symptoms"]

	var records []OutcomeRecord
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read outcomes row: %w", err)
		}
		o := OutcomeRecord{
			Disease:       field(rec, cols["disease"]),
			Outcome:       field(rec, cols["outcome variable"]),
			Gender:        field(rec, cols["gender"]),
			BloodPressure: field(rec, cols["blood pressure"]),
			Cholesterol:   field(rec, cols["cholesterol level"]),
		}
		if hasSymp {
			o.Symptoms = field(rec, sympIdx)
		}
		if age, err := strconv.Atoi(field(rec, cols["age"])); err == nil {
			o.Age = age
		}
		records = append(records, o)
	}
	return records, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
