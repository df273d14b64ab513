package resolver

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/evidence"
	"github.com/racetagger/raceident/pkg/processing/ocr"
	"github.com/racetagger/raceident/pkg/processing/roster"
	"github.com/racetagger/raceident/pkg/processing/temporal"
	"github.com/racetagger/raceident/pkg/profile"
)

var (
	meter = otel.Meter("raceident.engine")
	noCtx = context.Background()
)

// Request carries everything needed to resolve one image. The neighbor
// list is provided by the external timestamp provider and contains the
// image paths within the sport's temporal window.
type Request struct {
	AIResult         *model.AIResult
	Roster           *model.Roster
	RestrictToRoster bool
	Neighbors        []string
}

// Resolver decides which roster entry an image depicts. It is
// synchronous and performs no I/O; the only shared state are the two
// session caches (uniqueness index, temporal index).
type Resolver struct {
	mutex       sync.RWMutex
	prof        *profile.Profile
	corrector   *ocr.Corrector
	rosterCache *roster.Cache
	temporalIdx *temporal.Index
	l           *log.Logger

	resolvedCounter   metric.Int64Counter
	unresolvedCounter metric.Int64Counter
	fastTrackCounter  metric.Int64Counter
	scoreRecorder     metric.Float64Histogram
}

type Option func(*Resolver)

func WithRosterCache(arg *roster.Cache) Option {
	return func(r *Resolver) {
		r.rosterCache = arg
	}
}

func WithTemporalIndex(arg *temporal.Index) Option {
	return func(r *Resolver) {
		r.temporalIdx = arg
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(r *Resolver) {
		r.l = arg
	}
}

func New(prof *profile.Profile, opts ...Option) *Resolver {
	ret := &Resolver{
		prof: prof,
		l:    log.Default().Named("engine"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.rosterCache == nil {
		ret.rosterCache = roster.NewCache(roster.WithLogger(ret.l))
	}
	if ret.temporalIdx == nil {
		ret.temporalIdx = temporal.NewIndex(
			temporal.WithCapacity(prof.TemporalCacheSize),
			temporal.WithLogger(ret.l))
	}
	ret.corrector = ocr.NewCorrector(
		ocr.WithSimilarityThreshold(prof.OCRSimilarityThreshold),
		ocr.WithLogger(ret.l))
	ret.setupMetrics()
	return ret
}

func (r *Resolver) setupMetrics() {
	r.resolvedCounter, _ = meter.Int64Counter("raceident.resolve.matched",
		metric.WithDescription("images resolved to a roster entry"),
		metric.WithUnit("{count}"))
	r.unresolvedCounter, _ = meter.Int64Counter("raceident.resolve.unmatched",
		metric.WithDescription("images without an accepted match"),
		metric.WithUnit("{count}"))
	r.fastTrackCounter, _ = meter.Int64Counter("raceident.resolve.fasttrack",
		metric.WithDescription("images resolved by the name fast track"),
		metric.WithUnit("{count}"))
	r.scoreRecorder, _ = meter.Float64Histogram("raceident.resolve.best_score",
		metric.WithDescription("score of the best candidate"),
		metric.WithUnit("{score}"))
}

// Profile returns the active sport profile.
func (r *Resolver) Profile() *profile.Profile {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.prof
}

// SetProfile swaps the active sport profile (hot reload).
func (r *Resolver) SetProfile(prof *profile.Profile) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.prof = prof
	r.corrector = ocr.NewCorrector(
		ocr.WithSimilarityThreshold(prof.OCRSimilarityThreshold),
		ocr.WithLogger(r.l))
}

// RosterChanged drops the cached uniqueness index. The next resolve
// rebuilds it from the snapshot it receives.
func (r *Resolver) RosterChanged() {
	r.rosterCache.Invalidate()
}

// TemporalIndex exposes the session's temporal cluster index.
func (r *Resolver) TemporalIndex() *temporal.Index {
	return r.temporalIdx
}

// Resolve runs the full pipeline for one image:
// fast track -> extract -> correct -> score -> temporal -> resolve.
func (r *Resolver) Resolve(req *Request) *model.MatchResult {
	prof := r.Profile()
	corrections := []model.CorrectionRecord{}

	// names alone may settle the image; number correction is skipped
	// entirely then, fuzzing a correct but unusual number is net-harmful
	if result := r.fastTrack(req, prof); result != nil {
		r.fastTrackCounter.Add(noCtx, 1)
		r.recordResolution(req, result)
		return result
	}

	idx := r.rosterCache.Get(req.Roster)
	items := evidence.Extract(req.AIResult)
	items, ocrRecords := r.corrector.Apply(items, req.Roster)
	corrections = append(corrections, ocrRecords...)

	candidates := make([]*model.MatchCandidate, 0, len(req.Roster.Participants))
	for i := range req.Roster.Participants {
		candidates = append(candidates,
			r.scoreCandidate(&req.Roster.Participants[i], items, idx, prof))
	}
	r.applyTemporalBonus(candidates, req, prof)

	result := r.finalize(candidates, req.RestrictToRoster, prof)
	result.Corrections = append(corrections, result.Corrections...)

	if result.BestMatch != nil {
		r.resolvedCounter.Add(noCtx, 1)
		r.scoreRecorder.Record(noCtx, result.BestMatch.Score)
	} else {
		r.unresolvedCounter.Add(noCtx, 1)
	}
	r.recordResolution(req, result)
	r.l.Debug("resolved image",
		log.String("image", req.AIResult.ImagePath),
		log.Bool("matched", result.BestMatch != nil),
		log.Int("candidates", len(result.AllCandidates)))
	return result
}

// recordResolution feeds the temporal cluster index. Later images close
// in time benefit from this entry ("first come, first indexed").
func (r *Resolver) recordResolution(req *Request, result *model.MatchResult) {
	if result.BestMatch == nil || req.AIResult.Timestamp == nil {
		return
	}
	r.temporalIdx.Record(model.TemporalCacheEntry{
		ImagePath:      req.AIResult.ImagePath,
		ResolvedNumber: result.BestMatch.Participant.Number,
		Confidence:     result.BestMatch.Confidence,
		Timestamp:      *req.AIResult.Timestamp,
	})
}

func numbersEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// confidence normalizes a score into 0..1. The race number weight is the
// reference: an undisputed exact number match with confidence c maps
// back to roughly c.
func confidence(score float64, prof *profile.Profile) float64 {
	denom := prof.Weights.RaceNumber
	if denom <= 0 {
		denom = prof.FastTrackThreshold
	}
	ret := score / denom
	if ret < 0 {
		return 0
	}
	if ret > 1 {
		return 1
	}
	return ret
}
