package quiz

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
)

// ErrNotFound is the normal negative result for an unknown quiz id.
var ErrNotFound = errors.New("test not found")

var idSafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeID strips every character outside [a-zA-Z0-9_-]. Applied to every
// caller-supplied id before it touches the filesystem, so path traversal
// degrades to a harmless unknown id.
func SanitizeID(id string) string {
	return idSafe.ReplaceAllString(id, "")
}

// Store serves quiz definitions from a directory of <test_id>.json files.
type Store struct{ dir string }

func NewStore(dir string) *Store {
	if dir == "" {
		dir = "./tests"
	}
	return &Store{dir: dir}
}

func (s *Store) Get(id string) (Quiz, error) {
	safe := SanitizeID(id)
	if safe == "" {
		return Quiz{}, ErrNotFound
	}
	b, err := os.ReadFile(filepath.Join(s.dir, safe+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, err
	}
	var q Quiz
	if err := json.Unmarshal(b, &q); err != nil {
		return Quiz{}, err
	}
	if q.TestID == "" {
		q.TestID = safe
	}
	return q, nil
}
