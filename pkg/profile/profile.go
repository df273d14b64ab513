package profile

import (
	"errors"
	"fmt"
	"time"
)

// SupportedSchemaVersion is the profile schema this build understands.
// Profiles with a different major version are rejected at load time.
const SupportedSchemaVersion = "v1.0.0"

// Weights holds the base score weight per evidence kind. A weight of 0
// disables the kind entirely.
type Weights struct {
	RaceNumber float64 `yaml:"raceNumber" json:"raceNumber"`
	PersonName float64 `yaml:"personName" json:"personName"`
	Sponsor    float64 `yaml:"sponsor" json:"sponsor"`
	Team       float64 `yaml:"team" json:"team"`
	Category   float64 `yaml:"category" json:"category"`
	Plate      float64 `yaml:"plate" json:"plate"`
}

// Profile is the per-sport configuration of the resolution engine.
// Loaded once per session; pure data.
//
// The penalty values are empirically chosen. Validation only enforces
// their relative ordering (unique contradiction >= common contradiction
// >= category mismatch), the absolute numbers are tunable.
type Profile struct {
	SchemaVersion string  `yaml:"schemaVersion" json:"schemaVersion"`
	Sport         string  `yaml:"sport" json:"sport"`
	Weights       Weights `yaml:"weights" json:"weights"`

	// name matching
	NameMatchMultiplier     float64 `yaml:"nameMatchMultiplier" json:"nameMatchMultiplier"`
	PartialNameFactor       float64 `yaml:"partialNameFactor" json:"partialNameFactor"`
	NameSimilarityThreshold float64 `yaml:"nameSimilarityThreshold" json:"nameSimilarityThreshold"`

	// number correction and fuzzy number scoring
	OCRSimilarityThreshold      float64 `yaml:"ocrSimilarityThreshold" json:"ocrSimilarityThreshold"`
	FuzzyNumberFactor           float64 `yaml:"fuzzyNumberFactor" json:"fuzzyNumberFactor"`
	FuzzyNumberIncoherentFactor float64 `yaml:"fuzzyNumberIncoherentFactor" json:"fuzzyNumberIncoherentFactor"`
	TranspositionFactor         float64 `yaml:"transpositionFactor" json:"transpositionFactor"`

	// boosts and bonuses
	UniqueBoostFactor  float64 `yaml:"uniqueBoostFactor" json:"uniqueBoostFactor"`
	MultiEvidenceBonus float64 `yaml:"multiEvidenceBonus" json:"multiEvidenceBonus"`

	// resolution thresholds
	MinScore             float64 `yaml:"minScore" json:"minScore"`
	ClearWinnerGap       float64 `yaml:"clearWinnerGap" json:"clearWinnerGap"`
	FastTrackThreshold   float64 `yaml:"fastTrackThreshold" json:"fastTrackThreshold"`
	FastTrackNumberBonus float64 `yaml:"fastTrackNumberBonus" json:"fastTrackNumberBonus"`

	// contradiction penalties
	UniqueContradictionPenalty float64 `yaml:"uniqueContradictionPenalty" json:"uniqueContradictionPenalty"`
	CommonContradictionPenalty float64 `yaml:"commonContradictionPenalty" json:"commonContradictionPenalty"`
	CategoryMismatchPenalty    float64 `yaml:"categoryMismatchPenalty" json:"categoryMismatchPenalty"`
	PlateMismatchPenalty       float64 `yaml:"plateMismatchPenalty" json:"plateMismatchPenalty"`

	// override resolution
	OverrideMinEvidenceKinds int     `yaml:"overrideMinEvidenceKinds" json:"overrideMinEvidenceKinds"`
	OverrideScoreThreshold   float64 `yaml:"overrideScoreThreshold" json:"overrideScoreThreshold"`
	OverrideNumberConfidence float64 `yaml:"overrideNumberConfidence" json:"overrideNumberConfidence"`

	// temporal clustering
	TemporalWindow        time.Duration `yaml:"temporalWindow" json:"temporalWindow"`
	BurstWindow           time.Duration `yaml:"burstWindow" json:"burstWindow"`
	BurstMultiplier       float64       `yaml:"burstMultiplier" json:"burstMultiplier"`
	NeighborMinConfidence float64       `yaml:"neighborMinConfidence" json:"neighborMinConfidence"`
	TemporalBonusBase     float64       `yaml:"temporalBonusBase" json:"temporalBonusBase"`
	TemporalCacheSize     int           `yaml:"temporalCacheSize" json:"temporalCacheSize"`

	// sponsor abbreviation lookup, abbreviation -> full sponsor name
	SponsorAbbreviations map[string]string `yaml:"sponsorAbbreviations,omitempty" json:"sponsorAbbreviations,omitempty"`
}

// Default returns the base profile with the reference weighting.
func Default() *Profile {
	return &Profile{
		SchemaVersion: SupportedSchemaVersion,
		Sport:         "motorsport",
		Weights: Weights{
			RaceNumber: 100,
			PersonName: 80,
			Sponsor:    50,
			Team:       40,
			Category:   20,
			Plate:      60,
		},
		NameMatchMultiplier:         2.0,
		PartialNameFactor:           0.8,
		NameSimilarityThreshold:     0.85,
		OCRSimilarityThreshold:      0.7,
		FuzzyNumberFactor:           0.7,
		FuzzyNumberIncoherentFactor: 0.3,
		TranspositionFactor:         0.6,
		UniqueBoostFactor:           0.95,
		MultiEvidenceBonus:          0.15,
		MinScore:                    40,
		ClearWinnerGap:              25,
		FastTrackThreshold:          150,
		FastTrackNumberBonus:        50,
		UniqueContradictionPenalty:  30,
		CommonContradictionPenalty:  15,
		CategoryMismatchPenalty:     10,
		PlateMismatchPenalty:        30,
		OverrideMinEvidenceKinds:    2,
		OverrideScoreThreshold:      80,
		OverrideNumberConfidence:    0.5,
		TemporalWindow:              30 * time.Second,
		BurstWindow:                 2 * time.Second,
		BurstMultiplier:             1.5,
		NeighborMinConfidence:       0.7,
		TemporalBonusBase:           10,
		TemporalCacheSize:           1000,
	}
}

// Rally returns the rally variant: stronger name multiplier (crews are
// often the most reliable signal) and a wider temporal window since cars
// pass a photo spot one by one.
func Rally() *Profile {
	p := Default()
	p.Sport = "rally"
	p.NameMatchMultiplier = 2.5
	p.TemporalWindow = 120 * time.Second
	return p
}

// Motorsport returns the circuit racing variant.
func Motorsport() *Profile {
	p := Default()
	p.Sport = "motorsport"
	return p
}

// ForSport returns the default profile for the given sport name.
func ForSport(sport string) (*Profile, error) {
	switch sport {
	case "rally":
		return Rally(), nil
	case "motorsport", "":
		return Motorsport(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSport, sport)
	}
}

var (
	ErrUnknownSport  = errors.New("unknown sport")
	ErrInvalidConfig = errors.New("invalid profile")
)

//nolint:cyclop,funlen // plain range checks
func (p *Profile) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	inUnit := func(v float64) bool { return v >= 0 && v <= 1 }

	for _, w := range []struct {
		name string
		val  float64
	}{
		{"raceNumber", p.Weights.RaceNumber},
		{"personName", p.Weights.PersonName},
		{"sponsor", p.Weights.Sponsor},
		{"team", p.Weights.Team},
		{"category", p.Weights.Category},
		{"plate", p.Weights.Plate},
	} {
		check(w.val >= 0, "weight %s must be >= 0, got %v", w.name, w.val)
	}
	check(p.NameMatchMultiplier >= 1, "nameMatchMultiplier must be >= 1, got %v",
		p.NameMatchMultiplier)
	check(inUnit(p.PartialNameFactor), "partialNameFactor must be in [0,1], got %v",
		p.PartialNameFactor)
	check(inUnit(p.NameSimilarityThreshold),
		"nameSimilarityThreshold must be in [0,1], got %v", p.NameSimilarityThreshold)
	check(inUnit(p.OCRSimilarityThreshold),
		"ocrSimilarityThreshold must be in [0,1], got %v", p.OCRSimilarityThreshold)
	check(inUnit(p.FuzzyNumberFactor), "fuzzyNumberFactor must be in [0,1], got %v",
		p.FuzzyNumberFactor)
	check(inUnit(p.FuzzyNumberIncoherentFactor),
		"fuzzyNumberIncoherentFactor must be in [0,1], got %v",
		p.FuzzyNumberIncoherentFactor)
	check(inUnit(p.TranspositionFactor), "transpositionFactor must be in [0,1], got %v",
		p.TranspositionFactor)
	check(inUnit(p.UniqueBoostFactor), "uniqueBoostFactor must be in [0,1], got %v",
		p.UniqueBoostFactor)
	check(inUnit(p.MultiEvidenceBonus), "multiEvidenceBonus must be in [0,1], got %v",
		p.MultiEvidenceBonus)
	check(p.MinScore > 0, "minScore must be > 0, got %v", p.MinScore)
	check(p.ClearWinnerGap >= 0, "clearWinnerGap must be >= 0, got %v", p.ClearWinnerGap)
	check(p.FastTrackThreshold > 0, "fastTrackThreshold must be > 0, got %v",
		p.FastTrackThreshold)
	check(p.FastTrackNumberBonus >= 0, "fastTrackNumberBonus must be >= 0, got %v",
		p.FastTrackNumberBonus)
	check(p.UniqueContradictionPenalty >= 0 &&
		p.CommonContradictionPenalty >= 0 &&
		p.CategoryMismatchPenalty >= 0 &&
		p.PlateMismatchPenalty >= 0,
		"contradiction penalties must be >= 0")
	// only the relative ordering of the penalties is semantically binding
	check(p.UniqueContradictionPenalty >= p.CommonContradictionPenalty,
		"uniqueContradictionPenalty (%v) must be >= commonContradictionPenalty (%v)",
		p.UniqueContradictionPenalty, p.CommonContradictionPenalty)
	check(p.CommonContradictionPenalty >= p.CategoryMismatchPenalty,
		"commonContradictionPenalty (%v) must be >= categoryMismatchPenalty (%v)",
		p.CommonContradictionPenalty, p.CategoryMismatchPenalty)
	check(p.OverrideMinEvidenceKinds >= 1,
		"overrideMinEvidenceKinds must be >= 1, got %v", p.OverrideMinEvidenceKinds)
	check(p.OverrideScoreThreshold >= 0, "overrideScoreThreshold must be >= 0, got %v",
		p.OverrideScoreThreshold)
	check(inUnit(p.OverrideNumberConfidence),
		"overrideNumberConfidence must be in [0,1], got %v", p.OverrideNumberConfidence)
	check(p.TemporalWindow > 0, "temporalWindow must be > 0, got %v", p.TemporalWindow)
	check(p.BurstWindow > 0 && p.BurstWindow <= p.TemporalWindow,
		"burstWindow must be > 0 and <= temporalWindow, got %v", p.BurstWindow)
	check(p.BurstMultiplier >= 1, "burstMultiplier must be >= 1, got %v",
		p.BurstMultiplier)
	check(inUnit(p.NeighborMinConfidence),
		"neighborMinConfidence must be in [0,1], got %v", p.NeighborMinConfidence)
	check(p.TemporalBonusBase >= 0, "temporalBonusBase must be >= 0, got %v",
		p.TemporalBonusBase)
	check(p.TemporalCacheSize > 0, "temporalCacheSize must be > 0, got %v",
		p.TemporalCacheSize)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
