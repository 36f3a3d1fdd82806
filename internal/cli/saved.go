package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"
)

// savedSearches maps search names to query text. The file is plain JSON and
// is replaced atomically on every write so a crash never leaves it truncated.
type savedSearches struct {
	path    string
	queries map[string]string
}

func defaultSavedPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".iql_saved.json"
	}

	return filepath.Join(home, ".iql_saved.json")
}

// loadSaved reads the saved-searches file. A missing file is an empty set.
func loadSaved(path string) (*savedSearches, error) {
	s := &savedSearches{path: path, queries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read saved searches: %w", err)
	}

	if err := json.Unmarshal(data, &s.queries); err != nil {
		return nil, fmt.Errorf("saved searches file %s is corrupt: %w", path, err)
	}

	return s, nil
}

func (s *savedSearches) names() []string {
	out := make([]string, 0, len(s.queries))

	for name := range s.queries {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

func (s *savedSearches) get(name string) (string, bool) {
	q, ok := s.queries[name]

	return q, ok
}

func (s *savedSearches) put(name, queryText string) error {
	s.queries[name] = queryText

	return s.write()
}

func (s *savedSearches) remove(name string) error {
	if _, ok := s.queries[name]; !ok {
		return fmt.Errorf("no saved search named %q", name)
	}

	delete(s.queries, name)

	return s.write()
}

func (s *savedSearches) write() error {
	data, err := json.MarshalIndent(s.queries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode saved searches: %w", err)
	}

	data = append(data, '\n')

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write saved searches: %w", err)
	}

	return nil
}
