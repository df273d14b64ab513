package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/session"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	manager := session.NewManager()
	t.Cleanup(manager.Close)
	srv := httptest.NewServer(NewServer(manager).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, []byte(buf.String())
}

func startSession(t *testing.T, srv *httptest.Server, sport string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions",
		`{"sport": "`+sport+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var info struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &info))
	require.NotEmpty(t, info.ID)
	return info.ID
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestSessionLifecycle(t *testing.T) {
	srv := testServer(t)
	id := startSession(t, srv, "rally")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/sessions", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), id)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartSessionUnknownSport(t *testing.T) {
	srv := testServer(t)
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions",
		`{"sport": "chess"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolve(t *testing.T) {
	srv := testServer(t)
	id := startSession(t, srv, "motorsport")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/resolve", `{
		"aiResult": {
			"imagePath": "DSC_1001.jpg",
			"raceNumber": {"value": "8I", "confidence": 0.9}
		},
		"roster": {
			"id": "testevent",
			"participants": [
				{"id": "p1", "number": "81", "driver": "Kovanen"},
				{"id": "p2", "number": "18", "driver": "Meier"}
			]
		}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result model.MatchResult
	require.NoError(t, json.Unmarshal(body, &result))
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "81", result.BestMatch.Participant.Number)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, "81", result.Corrections[0].CorrectedValue)

	// the audit trail of the last image is exposed
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/sessions/"+id+"/corrections", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var records []model.CorrectionRecord
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "8I", records[0].OriginalValue)
}

func TestResolveUnknownSession(t *testing.T) {
	srv := testServer(t)
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions/nope/resolve",
		`{"aiResult": {}, "roster": {}}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResolveBadPayload(t *testing.T) {
	srv := testServer(t)
	id := startSession(t, srv, "motorsport")
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/resolve",
		`{"aiResult": "not an object`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBreakdown(t *testing.T) {
	srv := testServer(t)
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/breakdown", `{
		"participant": {"id": "p1", "number": "42"},
		"score": 110,
		"temporalBonus": 10,
		"matchedEvidence": [
			{"kind": 0, "value": "42", "confidence": 0.9, "score": 90}
		]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var breakdown struct {
		TotalScore float64 `json:"totalScore"`
		Bonuses    struct {
			Temporal      float64 `json:"temporal"`
			MultiEvidence float64 `json:"multiEvidence"`
		} `json:"bonuses"`
	}
	require.NoError(t, json.Unmarshal(body, &breakdown))
	assert.InDelta(t, 110.0, breakdown.TotalScore, 0.001)
	assert.InDelta(t, 10.0, breakdown.Bonuses.Temporal, 0.001)
	assert.InDelta(t, 10.0, breakdown.Bonuses.MultiEvidence, 0.001)
}
