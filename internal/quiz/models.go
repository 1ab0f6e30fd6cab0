package quiz

// Question types understood by the widget.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
)

type Question struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"` // multiple_choice, true_false, short_answer
	Text        string   `json:"text"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// Quiz is a published quiz definition. Immutable once published; the store
// never writes at runtime.
type Quiz struct {
	TestID    string     `json:"test_id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}
