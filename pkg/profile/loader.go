package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

var ErrSchemaVersion = errors.New("unsupported profile schema version")

// Load reads a profile file. The file only needs to contain the values
// that differ from the sport's defaults; everything else is filled in
// from ForSport.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses profile yaml and validates the result.
func Parse(data []byte) (*Profile, error) {
	var probe struct {
		SchemaVersion string `yaml:"schemaVersion"`
		Sport         string `yaml:"sport"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := checkSchemaVersion(probe.SchemaVersion); err != nil {
		return nil, err
	}
	ret, err := ForSport(probe.Sport)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if ret.SchemaVersion == "" {
		ret.SchemaVersion = SupportedSchemaVersion
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// checkSchemaVersion accepts an absent version (treated as current) and
// any version with the same major as SupportedSchemaVersion.
func checkSchemaVersion(arg string) error {
	if arg == "" {
		return nil
	}
	toCheck := arg
	if !strings.HasPrefix(toCheck, "v") {
		toCheck = "v" + toCheck
	}
	if !semver.IsValid(toCheck) {
		return fmt.Errorf("%w: %s", ErrSchemaVersion, arg)
	}
	if semver.Major(toCheck) != semver.Major(SupportedSchemaVersion) {
		return fmt.Errorf("%w: %s (supported: %s)",
			ErrSchemaVersion, arg, SupportedSchemaVersion)
	}
	return nil
}
