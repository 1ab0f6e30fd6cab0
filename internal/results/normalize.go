package results

import (
	"math"
	"time"
)

// Summary is the one canonical listing shape produced from heterogeneous
// historical records. Field precedence (first present wins):
//
//	id:          id
//	received_at: received_at | timestamp
//	test_id:     test_id | raw.test_id
//	title:       title | raw.title
//	user_name:   user_name | name | raw.user_name | raw.name
//	correct:     correct | score | raw.correct | raw.score
//	total:       total | total_questions | raw.total | raw.total_questions
//	scorePct:    scorePct | round(100*correct/total) when total > 0, else null
type Summary struct {
	ID         string   `json:"id"`
	ReceivedAt string   `json:"received_at"`
	TestID     string   `json:"test_id"`
	Title      string   `json:"title"`
	UserName   string   `json:"user_name"`
	Correct    *float64 `json:"correct"`
	Total      *float64 `json:"total"`
	ScorePct   *float64 `json:"scorePct"`
}

// Normalize maps one stored record (any historical shape) to a Summary.
func Normalize(entry map[string]any) Summary {
	raw, _ := entry["raw"].(map[string]any)

	correct := pickNum(entry, raw, "correct", "score")
	total := pickNum(entry, raw, "total", "total_questions")

	scorePct := numField(entry, "scorePct")
	if scorePct == nil && correct != nil && total != nil && *total > 0 {
		pct := math.Round(*correct / *total * 100)
		scorePct = &pct
	}

	return Summary{
		ID:         strField(entry, "id"),
		ReceivedAt: firstStr(strField(entry, "received_at"), strField(entry, "timestamp")),
		TestID:     firstStr(strField(entry, "test_id"), strField(raw, "test_id")),
		Title:      firstStr(strField(entry, "title"), strField(raw, "title")),
		UserName: firstStr(
			strField(entry, "user_name"), strField(entry, "name"),
			strField(raw, "user_name"), strField(raw, "name")),
		Correct:  correct,
		Total:    total,
		ScorePct: scorePct,
	}
}

// ReceivedTime parses the record instant. The zero time (and false) marks a
// missing or unparseable timestamp; such records drop out of since-filtered
// listings.
func (s Summary) ReceivedTime() (time.Time, bool) {
	return parseInstant(s.ReceivedAt)
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseInstant(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func strField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func numField(m map[string]any, key string) *float64 {
	if m == nil {
		return nil
	}
	if n, ok := m[key].(float64); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return &n
	}
	return nil
}

func pickNum(entry, raw map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if n := numField(entry, k); n != nil {
			return n
		}
	}
	for _, k := range keys {
		if n := numField(raw, k); n != nil {
			return n
		}
	}
	return nil
}

func firstStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
