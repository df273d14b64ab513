package ocr

import (
	"fmt"
	"strings"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/model"
)

// Corrector rewrites a detected race number towards the roster when the
// detection has no exact roster match. A number that already matches a
// roster entry is never touched; "fixing" a correct but unusual number
// into a similar neighbor number is worse than leaving it alone.
type Corrector struct {
	similarityThreshold float64
	l                   *log.Logger
}

type Option func(*Corrector)

func WithSimilarityThreshold(arg float64) Option {
	return func(c *Corrector) {
		c.similarityThreshold = arg
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Corrector) {
		c.l = arg
	}
}

func NewCorrector(opts ...Option) *Corrector {
	ret := &Corrector{
		similarityThreshold: 0.7,
		l:                   log.Default().Named("engine.ocr"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Candidate is a possible rewrite of the detected number.
type Candidate struct {
	Number        string
	Similarity    float64
	Transposition bool
}

// Apply corrects the race-number evidence item (if any) against the
// roster. The returned slice shares all items with the input except for
// a corrected race number. Every accepted correction is reported as an
// audit record.
//
//nolint:gocognit // correction selection reads better in one piece
func (c *Corrector) Apply(
	items []model.Evidence,
	roster *model.Roster,
) ([]model.Evidence, []model.CorrectionRecord) {
	idx := -1
	for i := range items {
		if items[i].Kind == model.EvidenceRaceNumber {
			idx = i
			break
		}
	}
	if idx == -1 {
		return items, nil
	}
	records := []model.CorrectionRecord{}
	detected := items[idx].Value

	normalized := strings.ToUpper(strings.TrimSpace(detected))
	if normalized != detected {
		records = append(records, model.CorrectionRecord{
			Kind:           model.CorrectionOCR,
			Field:          "raceNumber",
			OriginalValue:  detected,
			CorrectedValue: normalized,
			Reason:         "normalized raw detection",
			Confidence:     items[idx].Confidence,
		})
		detected = normalized
	}

	// exact roster match: leave the value alone
	for i := range roster.Participants {
		if numbersEqual(detected, roster.Participants[i].Number) {
			if len(records) > 0 {
				items = replaceNumber(items, idx, detected)
			}
			return items, records
		}
	}

	best := c.bestCandidate(detected, roster)
	if best == nil {
		return items, records
	}

	record := model.CorrectionRecord{
		Kind:           model.CorrectionFuzzy,
		Field:          "raceNumber",
		OriginalValue:  detected,
		CorrectedValue: best.Number,
		Confidence:     best.Similarity,
		Details: map[string]string{
			"editDistance": fmt.Sprintf("%d", EditDistance(detected, best.Number)),
		},
	}
	if best.Transposition {
		record.Reason = "digit transposition"
	} else {
		record.Reason = "character confusion correction"
	}
	records = append(records, record)
	c.l.Debug("corrected race number",
		log.String("from", detected),
		log.String("to", best.Number),
		log.Float("similarity", best.Similarity))

	return replaceNumber(items, idx, best.Number), records
}

// bestCandidate picks the roster number closest to the detection. An
// ambiguous result (two numbers with the same similarity) yields no
// correction at all.
func (c *Corrector) bestCandidate(detected string, roster *model.Roster) *Candidate {
	var best *Candidate
	ambiguous := false
	for i := range roster.Participants {
		num := strings.TrimSpace(roster.Participants[i].Number)
		if num == "" || !withinCorrectionBounds(detected, num) {
			continue
		}
		var cand *Candidate
		if sim := ConfusionSimilarity(detected, num); sim >= c.similarityThreshold {
			cand = &Candidate{Number: num, Similarity: sim}
		} else if IsTransposition(detected, num) {
			cand = &Candidate{Number: num, Similarity: 0.9, Transposition: true}
		}
		if cand == nil {
			continue
		}
		switch {
		case best == nil || cand.Similarity > best.Similarity:
			best = cand
			ambiguous = false
		case cand.Similarity == best.Similarity && cand.Number != best.Number:
			ambiguous = true
		}
	}
	if best == nil || ambiguous {
		return nil
	}
	return best
}

func replaceNumber(items []model.Evidence, idx int, value string) []model.Evidence {
	ret := make([]model.Evidence, len(items))
	copy(ret, items)
	ret[idx].Value = value
	return ret
}

func numbersEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
