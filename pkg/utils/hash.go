package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/racetagger/raceident/pkg/model"
)

// RosterHash computes a stable identity for a roster snapshot from its
// (number, primary name) pairs. The uniqueness index is keyed by this
// value so it is only rebuilt when the roster actually changed.
func RosterHash(roster *model.Roster) string {
	hasher := sha256.New()
	for i := range roster.Participants {
		p := &roster.Participants[i]
		fmt.Fprintf(hasher, "%s|%s\n",
			strings.ToLower(strings.TrimSpace(p.Number)),
			strings.ToLower(strings.TrimSpace(p.Driver)))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
