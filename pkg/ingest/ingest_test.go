package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racetagger/raceident/pkg/model"
)

//nolint:funlen // ok for tests
func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		checks  func(t *testing.T, res *model.AIResult)
	}{
		{
			name: "scored fields",
			data: `{
				"imagePath": "DSC_1001.jpg",
				"timestamp": "2025-06-14T11:10:12Z",
				"raceNumber": {"value": "42", "confidence": 0.92},
				"drivers": ["Rossi", "Bianchi"],
				"sponsors": ["Shell"],
				"team": "Scuderia Nord",
				"category": "RC2",
				"plate": {"value": "TO-123-AB", "confidence": 0.8}
			}`,
			checks: func(t *testing.T, res *model.AIResult) {
				t.Helper()
				assert.Equal(t, "DSC_1001.jpg", res.ImagePath)
				require.NotNil(t, res.Timestamp)
				assert.Equal(t, time.Date(2025, 6, 14, 11, 10, 12, 0, time.UTC),
					res.Timestamp.UTC())
				require.NotNil(t, res.RaceNumber)
				assert.Equal(t, "42", res.RaceNumber.Value)
				assert.InDelta(t, 0.92, res.RaceNumber.Confidence, 0.001)
				assert.Equal(t, []string{"Rossi", "Bianchi"}, res.Drivers)
				assert.Equal(t, []string{"Shell"}, res.Sponsors)
				require.NotNil(t, res.Team)
				assert.Equal(t, "Scuderia Nord", *res.Team)
				require.NotNil(t, res.Plate)
				assert.InDelta(t, 0.8, res.Plate.Confidence, 0.001)
			},
		},
		{
			name: "legacy plain-string race number",
			data: `{"imagePath": "a.jpg", "raceNumber": "7"}`,
			checks: func(t *testing.T, res *model.AIResult) {
				t.Helper()
				require.NotNil(t, res.RaceNumber)
				assert.Equal(t, "7", res.RaceNumber.Value)
				assert.InDelta(t, 1.0, res.RaceNumber.Confidence, 0.001)
			},
		},
		{
			name: "absent fields stay nil",
			data: `{"imagePath": "a.jpg"}`,
			checks: func(t *testing.T, res *model.AIResult) {
				t.Helper()
				assert.Nil(t, res.RaceNumber)
				assert.Nil(t, res.Timestamp)
				assert.Nil(t, res.Team)
				assert.Empty(t, res.Drivers)
			},
		},
		{
			name: "malformed fields degrade to no evidence",
			data: `{
				"imagePath": "a.jpg",
				"timestamp": "yesterday",
				"raceNumber": {"value": 42},
				"drivers": ["Rossi", 7, null]
			}`,
			checks: func(t *testing.T, res *model.AIResult) {
				t.Helper()
				assert.Nil(t, res.Timestamp)
				assert.Nil(t, res.RaceNumber)
				assert.Equal(t, []string{"Rossi"}, res.Drivers)
			},
		},
		{
			name:    "not json at all",
			data:    `{"imagePath": `,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseResult([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.checks(t, res)
		})
	}
}

func TestParseBatch(t *testing.T) {
	batch, err := ParseBatch([]byte(`[
		{"imagePath": "a.jpg", "raceNumber": "7"},
		{"imagePath": "b.jpg"}
	]`))
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "a.jpg", batch[0].ImagePath)
	assert.Equal(t, "b.jpg", batch[1].ImagePath)

	// a single document is a batch of one
	single, err := ParseBatch([]byte(`{"imagePath": "c.jpg"}`))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "c.jpg", single[0].ImagePath)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"imagePath": "a.jpg"}]`), 0o600))

	batch, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, batch, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadRoster(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "testevent.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
participants:
  - id: p1
    number: "7"
    driver: Rossi
    sponsors: ["Shell, Pirelli"]
`), 0o600))

	roster, err := LoadRoster(yamlPath)
	require.NoError(t, err)
	// the ID defaults to the file name
	assert.Equal(t, "testevent", roster.ID)
	require.Len(t, roster.Participants, 1)
	assert.Equal(t, "7", roster.Participants[0].Number)
	assert.Equal(t, "Rossi", roster.Participants[0].Driver)

	jsonPath := filepath.Join(dir, "event2.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"id": "explicit", "participants": [{"id": "p1", "number": "42"}]}`), 0o600))

	roster, err = LoadRoster(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "explicit", roster.ID)
	require.Len(t, roster.Participants, 1)
	assert.Equal(t, "42", roster.Participants[0].Number)
}
