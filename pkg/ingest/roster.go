package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/racetagger/raceident/pkg/model"
)

// LoadRoster reads a roster snapshot from a YAML or JSON file. The
// format is chosen by file extension; YAML is the default since event
// organizers maintain these by hand.
func LoadRoster(path string) (*model.Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file: %w", err)
	}
	ret := &model.Roster{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := oj.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("parsing roster file %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("parsing roster file %s: %w", path, err)
		}
	}
	if ret.ID == "" {
		ret.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ret, nil
}
