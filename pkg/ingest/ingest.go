package ingest

import (
	"fmt"
	"os"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/racetagger/raceident/pkg/model"
)

// Reads AI detection output. The upstream vision pipeline emits one
// JSON object per image (or an array of them); field shapes vary
// between pipeline versions (race number as plain string vs.
// value/confidence object), so extraction goes through JSONPath
// expressions instead of a rigid struct.
//
// Malformed fields degrade to "no evidence of that kind"; only a
// document that is not JSON at all is an error.

var (
	pathImage      = jp.MustParseString("$.imagePath")
	pathTimestamp  = jp.MustParseString("$.timestamp")
	pathNumber     = jp.MustParseString("$.raceNumber")
	pathNumberVal  = jp.MustParseString("$.raceNumber.value")
	pathNumberConf = jp.MustParseString("$.raceNumber.confidence")
	pathDrivers    = jp.MustParseString("$.drivers[*]")
	pathSponsors   = jp.MustParseString("$.sponsors[*]")
	pathTeam       = jp.MustParseString("$.team")
	pathCategory   = jp.MustParseString("$.category")
	pathPlateVal   = jp.MustParseString("$.plate.value")
	pathPlateConf  = jp.MustParseString("$.plate.confidence")
)

// ParseResult reads a single detection document.
func ParseResult(data []byte) (*model.AIResult, error) {
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing detection document: %w", err)
	}
	return fromDocument(obj), nil
}

// ParseBatch reads either an array of detection documents or a single
// one.
func ParseBatch(data []byte) ([]*model.AIResult, error) {
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing detection batch: %w", err)
	}
	if docs, ok := obj.([]any); ok {
		ret := make([]*model.AIResult, 0, len(docs))
		for _, doc := range docs {
			ret = append(ret, fromDocument(doc))
		}
		return ret, nil
	}
	return []*model.AIResult{fromDocument(obj)}, nil
}

// LoadFile reads one detection file from disk.
func LoadFile(path string) ([]*model.AIResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading detection file: %w", err)
	}
	return ParseBatch(data)
}

//nolint:gocognit // field-by-field extraction reads better in one piece
func fromDocument(doc any) *model.AIResult {
	ret := &model.AIResult{}
	if v, ok := firstString(pathImage, doc); ok {
		ret.ImagePath = v
	}
	if v, ok := firstString(pathTimestamp, doc); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			ret.Timestamp = &ts
		}
	}
	if det, ok := detection(doc, pathNumber, pathNumberVal, pathNumberConf); ok {
		ret.RaceNumber = det
	}
	for _, v := range pathDrivers.Get(doc) {
		if s, ok := v.(string); ok {
			ret.Drivers = append(ret.Drivers, s)
		}
	}
	for _, v := range pathSponsors.Get(doc) {
		if s, ok := v.(string); ok {
			ret.Sponsors = append(ret.Sponsors, s)
		}
	}
	if v, ok := firstString(pathTeam, doc); ok {
		ret.Team = &v
	}
	if v, ok := firstString(pathCategory, doc); ok {
		ret.Category = &v
	}
	if v, ok := firstString(pathPlateVal, doc); ok {
		conf := 1.0
		if c, cOk := firstFloat(pathPlateConf, doc); cOk {
			conf = c
		}
		ret.Plate = &model.Detection{Value: v, Confidence: conf}
	}
	return ret
}

// detection handles both shapes of a confidence-scored field: a plain
// string (older pipelines, confidence 1.0) or a value/confidence
// object.
func detection(doc any, plain, value, conf jp.Expr) (*model.Detection, bool) {
	if v, ok := firstString(value, doc); ok {
		ret := &model.Detection{Value: v, Confidence: 1.0}
		if c, cOk := firstFloat(conf, doc); cOk {
			ret.Confidence = c
		}
		return ret, true
	}
	if v, ok := firstString(plain, doc); ok {
		return &model.Detection{Value: v, Confidence: 1.0}, true
	}
	return nil, false
}

func firstString(path jp.Expr, doc any) (string, bool) {
	if res := path.Get(doc); len(res) > 0 {
		if s, ok := res[0].(string); ok {
			return s, true
		}
	}
	return "", false
}

func firstFloat(path jp.Expr, doc any) (float64, bool) {
	if res := path.Get(doc); len(res) > 0 {
		switch v := res[0].(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}
