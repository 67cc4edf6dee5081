package tax

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"superca/internal/domain"
)

//go:embed rules/*.json
var embeddedRules embed.FS

// Registry holds the loaded rule tables. Tables are immutable once
// registered; a rate change ships as a new version.
type Registry struct {
	mu       sync.RWMutex
	tables   map[string]*RuleTable
	byPeriod map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		tables:   make(map[string]*RuleTable),
		byPeriod: make(map[string]string),
	}
}

// LoadEmbedded registers the rule tables compiled into the binary.
func (r *Registry) LoadEmbedded() error {
	entries, err := embeddedRules.ReadDir("rules")
	if err != nil {
		return fmt.Errorf("tax.LoadEmbedded: %w", err)
	}
	for _, e := range entries {
		data, err := embeddedRules.ReadFile("rules/" + e.Name())
		if err != nil {
			return fmt.Errorf("tax.LoadEmbedded: %w", err)
		}
		if err := r.registerJSON(data); err != nil {
			return fmt.Errorf("tax.LoadEmbedded %s: %w", e.Name(), err)
		}
	}
	return nil
}

// LoadDir registers any *.json rule tables found in dir, overriding embedded
// tables that share a version. A missing dir is not an error.
func (r *Registry) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("tax.LoadDir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("tax.LoadDir: %w", err)
		}
		if err := r.registerJSON(data); err != nil {
			return fmt.Errorf("tax.LoadDir %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (r *Registry) registerJSON(data []byte) error {
	var table RuleTable
	if err := json.Unmarshal(data, &table); err != nil {
		return err
	}
	return r.Register(&table)
}

// Register validates and stores a table, indexing its filing periods.
func (r *Registry) Register(table *RuleTable) error {
	if err := table.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.Version] = table
	for _, p := range table.FilingPeriods {
		r.byPeriod[p] = table.Version
	}
	return nil
}

// ByVersion returns the table registered under version.
func (r *Registry) ByVersion(version string) (*RuleTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[version]
	if !ok {
		return nil, fmt.Errorf("rule version %q: %w", version, domain.ErrRuleTableNotFound)
	}
	return t, nil
}

// ForPeriod returns the table that covers a filing period.
func (r *Registry) ForPeriod(period string) (*RuleTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byPeriod[period]
	if !ok {
		return nil, fmt.Errorf("filing period %q: %w", period, domain.ErrRuleTableNotFound)
	}
	return r.tables[v], nil
}

// Versions lists the registered rule versions, sorted.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tables))
	for v := range r.tables {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
