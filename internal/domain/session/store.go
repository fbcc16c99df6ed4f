package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/id"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// FormatVersion is written into every saved state
const FormatVersion = 1

// ErrNoSession is returned by Load and Restore when nothing was saved yet
var ErrNoSession = errors.New("no saved session")

// Tab is a saved workspace tab
type Tab struct {
	ID    string                 `json:"id"`
	Title string                 `json:"title,omitempty"`
	Props map[string]interface{} `json:"props,omitempty"`
}

// State is the persisted shell state
type State struct {
	ID         id.SessionID      `json:"id"`
	Version    int               `json:"version"`
	SavedAt    time.Time         `json:"saved_at"`
	Layout     string            `json:"layout,omitempty"`
	ActiveTabs map[string]string `json:"active_tabs,omitempty"` // Slot name -> component id
	Tabs       []Tab             `json:"tabs,omitempty"`
	Active     string            `json:"active,omitempty"`
}

// RestoreReport lists what could not be restored because the layout or
// component no longer exists
type RestoreReport struct {
	Layout      string   `json:"layout,omitempty"`
	LayoutFound bool     `json:"layout_found"`
	Opened      []string `json:"opened"`
	Skipped     []string `json:"skipped,omitempty"`
}

// Stats reports store activity
type Stats struct {
	Path         string     `json:"path"`
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
}

// Store saves and restores shell state to a single JSON file
type Store struct {
	shell  *shell.Shell
	path   string
	logger *zap.Logger

	mu           sync.RWMutex
	lastSaved    *time.Time // Protected by mu
	lastRestored *time.Time // Protected by mu
}

// NewStore creates a store writing to path
func NewStore(sh *shell.Shell, path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		shell:  sh,
		path:   path,
		logger: logger.Named("session"),
	}
}

// Capture reads the current shell state
func (s *Store) Capture() State {
	state := State{
		ID:         id.NewSessionID(),
		Version:    FormatVersion,
		SavedAt:    time.Now().UTC(),
		ActiveTabs: make(map[string]string),
	}

	if active, ok := s.shell.Layouts.Active(); ok {
		state.Layout = active.Name
	}
	for _, snap := range s.shell.Slots() {
		if snap.ActiveTabID != "" {
			state.ActiveTabs[snap.Name] = snap.ActiveTabID
		}
	}

	ws := s.shell.Workspace.State()
	state.Active = ws.Active
	for _, t := range ws.Tabs {
		state.Tabs = append(state.Tabs, Tab{ID: t.ID, Title: t.Title, Props: t.Props})
	}
	return state
}

// Save captures the shell state and writes it atomically
func (s *Store) Save(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := s.Capture()
	data, err := sonic.ConfigStd.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return nil, fmt.Errorf("failed to write session: %w", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastSaved = &now
	s.mu.Unlock()

	s.logger.Info("session saved",
		zap.String("path", s.path),
		zap.String("layout", state.Layout),
		zap.Int("tabs", len(state.Tabs)))
	return &state, nil
}

// Load reads the saved state without applying it
func (s *Store) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var state State
	if err := sonic.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", s.path, err)
	}
	if state.Version != FormatVersion {
		return nil, fmt.Errorf("session %s has unsupported version %d", s.path, state.Version)
	}
	return &state, nil
}

// Restore loads the saved state and applies it
func (s *Store) Restore(ctx context.Context) (*RestoreReport, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	report := s.Apply(*state)

	now := time.Now()
	s.mu.Lock()
	s.lastRestored = &now
	s.mu.Unlock()

	s.logger.Info("session restored",
		zap.String("layout", report.Layout),
		zap.Strings("opened", report.Opened),
		zap.Strings("skipped", report.Skipped))
	return report, nil
}

// Apply switches to the saved layout, reopens saved tabs in order, focuses
// the saved tab and reselects slot tabs. Layouts and components that are no
// longer registered are skipped.
func (s *Store) Apply(state State) *RestoreReport {
	report := &RestoreReport{Layout: state.Layout, Opened: []string{}}

	if state.Layout != "" {
		if _, ok := s.shell.Layouts.Get(state.Layout); ok {
			report.LayoutFound = s.shell.Layouts.SetActive(state.Layout)
		}
	}

	for _, t := range state.Tabs {
		err := s.shell.Workspace.Open(t.ID, plugin.OpenOptions{
			Title:      t.Title,
			Props:      t.Props,
			Background: true,
		})
		if err != nil {
			report.Skipped = append(report.Skipped, t.ID)
			continue
		}
		report.Opened = append(report.Opened, t.ID)
	}
	if state.Active != "" {
		s.shell.Workspace.Activate(state.Active)
	}

	for name, id := range state.ActiveTabs {
		sl, ok := s.shell.Slot(name)
		if !ok || !sl.SetActiveTab(id) {
			report.Skipped = append(report.Skipped, name+"="+id)
		}
	}
	return report
}

// Stats returns store statistics
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Path:         s.path,
		LastSaved:    s.lastSaved,
		LastRestored: s.lastRestored,
	}
}
