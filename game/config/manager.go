package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/wricardo/casta-game/game/engine"
	"github.com/wricardo/casta-game/game/service"
)

var (
	// ErrLayoutNotFound is the service sentinel so callers can match either name
	ErrLayoutNotFound = service.ErrLayoutNotFound
	ErrInvalidLayout  = errors.New("invalid layout")
)

// Built-in layout identifiers
const (
	LayoutEmpty    = "empty"
	LayoutStarting = "starting"
)

var layoutExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles board layout loading and caching
type Manager struct {
	layoutDir     string
	defaultLayout *engine.Layout
	defaultName   string
	layouts       map[string]*engine.Layout
	mu            sync.RWMutex
}

// NewManager creates a layout manager. layoutDir may be empty, in which case
// only the built-in layouts are available. A non-empty directory must exist.
func NewManager(layoutDir string) (*Manager, error) {
	if layoutDir != "" {
		info, err := os.Stat(layoutDir)
		if err != nil {
			return nil, fmt.Errorf("layout directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("layout directory is not a directory: %s", layoutDir)
		}
	}

	m := &Manager{
		layoutDir: layoutDir,
		layouts:   builtinLayouts(),
	}
	m.defaultLayout = m.layouts[LayoutEmpty]
	m.defaultName = LayoutEmpty

	return m, nil
}

// LoadLayout loads a layout by name. Built-ins win over files of the same name.
func (m *Manager) LoadLayout(name string) (*engine.Layout, error) {
	id := layoutID(name)

	m.mu.RLock()
	// Check cache first
	if layout, exists := m.layouts[id]; exists {
		m.mu.RUnlock()
		return layout, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if layout, exists := m.layouts[id]; exists {
		return layout, nil
	}

	path, err := m.findLayoutFile(id)
	if err != nil {
		return nil, err
	}

	layout, err := ReadLayoutFile(path)
	if err != nil {
		return nil, err
	}

	m.layouts[id] = layout
	return layout, nil
}

// ListLayouts returns information about all available layouts, built-ins first
func (m *Manager) ListLayouts() ([]*service.LayoutInfo, error) {
	m.mu.RLock()
	infos := []*service.LayoutInfo{
		layoutInfo(LayoutEmpty, "", m.layouts[LayoutEmpty], true),
		layoutInfo(LayoutStarting, "", m.layouts[LayoutStarting], true),
	}
	m.mu.RUnlock()

	if m.layoutDir == "" {
		return infos, nil
	}

	entries, err := os.ReadDir(m.layoutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout directory: %w", err)
	}

	var files []*service.LayoutInfo
	for _, entry := range entries {
		if entry.IsDir() || !hasLayoutExtension(entry.Name()) {
			continue
		}

		id := layoutID(entry.Name())
		if isBuiltin(id) {
			continue
		}

		layout, err := m.LoadLayout(id)
		if err != nil {
			// Skip invalid layouts
			continue
		}

		files = append(files, layoutInfo(id, entry.Name(), layout, false))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].LayoutID < files[j].LayoutID })

	return append(infos, files...), nil
}

// Default returns the layout new sessions start from
func (m *Manager) Default() *engine.Layout {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLayout
}

// DefaultName returns the identifier of the default layout
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default layout by name
func (m *Manager) SetDefault(name string) error {
	layout, err := m.LoadLayout(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLayout = layout
	m.defaultName = layoutID(name)
	return nil
}

// DefaultBoard returns a fresh board for the default layout
func (m *Manager) DefaultBoard() engine.Board {
	board, err := m.Default().Board()
	if err != nil {
		// Layouts are validated on load
		return engine.NewEmptyBoard()
	}
	return board
}

// RefreshCache drops every cached file layout. The default is reloaded from disk.
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.layouts = builtinLayouts()
	name := m.defaultName
	m.mu.Unlock()

	return m.SetDefault(name)
}

// ReadLayoutFile parses and validates a single JSON or YAML layout file
func ReadLayoutFile(path string) (*engine.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	var layout engine.Layout
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &layout)
	default:
		err = json.Unmarshal(data, &layout)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLayout, filepath.Base(path), err)
	}

	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLayout, filepath.Base(path), err)
	}

	return &layout, nil
}

func (m *Manager) findLayoutFile(id string) (string, error) {
	if m.layoutDir == "" || id == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
	}

	for _, ext := range layoutExtensions {
		path := filepath.Join(m.layoutDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrLayoutNotFound, id)
}

func builtinLayouts() map[string]*engine.Layout {
	return map[string]*engine.Layout{
		LayoutEmpty: {
			Name:        "Empty",
			Description: "Empty 8x8 board",
			Rows:        engine.NewEmptyBoard().Rows(),
		},
		LayoutStarting: {
			Name:        "Starting",
			Description: "Standard opening position, white on rows 6-7",
			Rows:        engine.NewStartingBoard().Rows(),
		},
	}
}

func layoutInfo(id, filename string, layout *engine.Layout, builtIn bool) *service.LayoutInfo {
	info := &service.LayoutInfo{
		Filename:    filename,
		LayoutID:    id,
		Name:        layout.Name,
		Description: layout.Description,
		BuiltIn:     builtIn,
	}
	if board, err := layout.Board(); err == nil {
		info.WhitePieces = board.Count(engine.White)
		info.BlackPieces = board.Count(engine.Black)
	}
	return info
}

func layoutID(name string) string {
	for _, ext := range layoutExtensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func hasLayoutExtension(filename string) bool {
	return layoutID(filename) != filename
}

func isBuiltin(id string) bool {
	return id == LayoutEmpty || id == LayoutStarting
}
