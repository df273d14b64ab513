package resolve

import (
	"fmt"
	"os"
	"sort"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/config"
	"github.com/racetagger/raceident/pkg/ingest"
	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/resolver"
	"github.com/racetagger/raceident/pkg/processing/session"
	"github.com/racetagger/raceident/pkg/profile"
)

func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <detection-file> [<detection-file> ...]",
		Short: "resolves a batch of AI detection files against a roster",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args)
		},
	}
	cmd.Flags().StringVarP(&config.RosterPath,
		"roster",
		"r",
		"",
		"path to the roster file (yaml or json)")
	//nolint:errcheck // flag is declared right above
	cmd.MarkFlagRequired("roster")
	cmd.Flags().BoolVar(&config.RestrictToRoster,
		"restrict",
		false,
		"never guess when no candidate clearly qualifies")
	cmd.Flags().StringVarP(&config.OutputPath,
		"output",
		"o",
		"",
		"file for the result report (default: stdout)")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	return cmd
}

// batchEntry is one line of the result report.
type batchEntry struct {
	ImagePath          string                   `json:"imagePath"`
	Matched            bool                     `json:"matched"`
	Number             string                   `json:"number,omitempty"`
	Score              float64                  `json:"score,omitempty"`
	Confidence         float64                  `json:"confidence,omitempty"`
	MultipleHighScores bool                     `json:"multipleHighScores,omitempty"`
	ResolvedByOverride bool                     `json:"resolvedByOverride,omitempty"`
	GhostVehicle       bool                     `json:"ghostVehicle,omitempty"`
	Corrections        []model.CorrectionRecord `json:"corrections,omitempty"`
}

//nolint:funlen // by design
func runBatch(files []string) error {
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.ResetDefault(log.DevLogger(os.Stderr, level))

	prof, err := loadProfile()
	if err != nil {
		return err
	}
	roster, err := ingest.LoadRoster(config.RosterPath)
	if err != nil {
		return err
	}
	results := make([]*model.AIResult, 0, len(files))
	for _, file := range files {
		loaded, lErr := ingest.LoadFile(file)
		if lErr != nil {
			return lErr
		}
		results = append(results, loaded...)
	}
	// capture order; documents without timestamp go last
	sort.SliceStable(results, func(a, b int) bool {
		switch {
		case results[a].Timestamp == nil:
			return false
		case results[b].Timestamp == nil:
			return true
		default:
			return results[a].Timestamp.Before(*results[b].Timestamp)
		}
	})

	manager := session.NewManager()
	sess := manager.StartWithProfile(prof)
	defer manager.Close()

	report := make([]batchEntry, 0, len(results))
	matched := 0
	for i, res := range results {
		result := sess.Resolve(&resolver.Request{
			AIResult:         res,
			Roster:           roster,
			RestrictToRoster: config.RestrictToRoster,
			Neighbors:        neighborsOf(results, i, prof),
		})
		entry := batchEntry{
			ImagePath:          res.ImagePath,
			MultipleHighScores: result.MultipleHighScores,
			ResolvedByOverride: result.ResolvedByOverride,
			Corrections:        result.Corrections,
		}
		if result.BestMatch != nil {
			matched++
			entry.Matched = true
			entry.Number = result.BestMatch.Participant.Number
			entry.Score = result.BestMatch.Score
			entry.Confidence = result.BestMatch.Confidence
			entry.GhostVehicle = result.BestMatch.GhostVehicleWarning
		}
		report = append(report, entry)
	}
	log.Info("batch done",
		log.Int("images", len(results)),
		log.Int("matched", matched))
	return writeReport(report)
}

func loadProfile() (*profile.Profile, error) {
	if config.ProfilePath != "" {
		return profile.Load(config.ProfilePath)
	}
	return profile.ForSport(config.Sport)
}

// neighborsOf collects the image paths captured within the temporal
// window around entry i.
func neighborsOf(results []*model.AIResult, i int, prof *profile.Profile) []string {
	cur := results[i]
	if cur.Timestamp == nil {
		return nil
	}
	ret := []string{}
	for j, other := range results {
		if j == i || other.Timestamp == nil {
			continue
		}
		delta := cur.Timestamp.Sub(*other.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= prof.TemporalWindow {
			ret = append(ret, other.ImagePath)
		}
	}
	return ret
}

func writeReport(report []batchEntry) error {
	data := oj.JSON(report, 2)
	if config.OutputPath == "" {
		fmt.Fprintln(os.Stdout, data)
		return nil
	}
	//nolint:gosec // report file, no secrets
	if err := os.WriteFile(config.OutputPath, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
