package feature

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Flag represents a feature flag
type Flag string

// Feature flags for CorvusDB
const (
	// Planner Flags
	SargableRewrite Flag = "sargable_rewrite"
	IndexScans      Flag = "index_scans"
	SortElision     Flag = "sort_elision"

	// Cardinality Estimation Flags
	HistogramEstimation Flag = "histogram_estimation"
)

// FlagMetadata contains metadata about a feature flag
type FlagMetadata struct {
	Name         Flag
	Description  string
	DefaultValue bool
	Category     string
	Stability    string // "stable", "beta", "experimental"
}

// Manager manages feature flags
type Manager struct {
	flags    map[Flag]*flagState
	mu       sync.RWMutex
	onChange []func(Flag, bool)
	metadata map[Flag]*FlagMetadata
}

// flagState represents the state of a single flag
type flagState struct {
	enabled    atomic.Bool
	overridden bool
	envVar     string
}

// Global feature flag manager
var globalManager = newManager()

// newManager creates a new feature flag manager
func newManager() *Manager {
	m := &Manager{
		flags:    make(map[Flag]*flagState),
		metadata: make(map[Flag]*FlagMetadata),
		onChange: make([]func(Flag, bool), 0),
	}

	// Register all flags with metadata
	m.registerFlags()

	// Load from environment
	m.loadFromEnvironment()

	return m
}

// registerFlags registers all feature flags with their metadata
func (m *Manager) registerFlags() {
	// Planner
	m.register(SargableRewrite, &FlagMetadata{
		Name:         SargableRewrite,
		Description:  "Rewrite filter-over-scan into index-answerable requirements",
		DefaultValue: true,
		Category:     "planner",
		Stability:    "stable",
	})

	m.register(IndexScans, &FlagMetadata{
		Name:         IndexScans,
		Description:  "Consider index scan alternatives during implementation",
		DefaultValue: true,
		Category:     "planner",
		Stability:    "stable",
	})

	m.register(SortElision, &FlagMetadata{
		Name:         SortElision,
		Description:  "Elide sorts satisfied by index scan order",
		DefaultValue: true,
		Category:     "planner",
		Stability:    "stable",
	})

	// Cardinality Estimation
	m.register(HistogramEstimation, &FlagMetadata{
		Name:         HistogramEstimation,
		Description:  "Use collected histograms for selectivity estimation",
		DefaultValue: true,
		Category:     "estimation",
		Stability:    "stable",
	})
}

// register registers a single flag
func (m *Manager) register(flag Flag, metadata *FlagMetadata) {
	state := &flagState{
		envVar: flagToEnvVar(flag),
	}
	state.enabled.Store(metadata.DefaultValue)

	m.flags[flag] = state
	m.metadata[flag] = metadata
}

// loadFromEnvironment loads flag values from environment variables
func (m *Manager) loadFromEnvironment() {
	for _, state := range m.flags {
		if val := os.Getenv(state.envVar); val != "" {
			if enabled, err := strconv.ParseBool(val); err == nil {
				state.enabled.Store(enabled)
				state.overridden = true
			}
		}
	}
}

// IsEnabled checks if a feature flag is enabled
func IsEnabled(flag Flag) bool {
	return globalManager.IsEnabled(flag)
}

// IsEnabled checks if a feature flag is enabled
func (m *Manager) IsEnabled(flag Flag) bool {
	m.mu.RLock()
	state, exists := m.flags[flag]
	m.mu.RUnlock()

	if !exists {
		return false
	}

	return state.enabled.Load()
}

// Enable enables a feature flag
func Enable(flag Flag) {
	globalManager.Enable(flag)
}

// Enable enables a feature flag
func (m *Manager) Enable(flag Flag) {
	m.setFlag(flag, true)
}

// Disable disables a feature flag
func Disable(flag Flag) {
	globalManager.Disable(flag)
}

// Disable disables a feature flag
func (m *Manager) Disable(flag Flag) {
	m.setFlag(flag, false)
}

// setFlag sets a flag value and notifies listeners
func (m *Manager) setFlag(flag Flag, enabled bool) {
	m.mu.RLock()
	state, exists := m.flags[flag]
	callbacks := m.onChange
	m.mu.RUnlock()

	if !exists {
		return
	}

	oldValue := state.enabled.Load()
	if oldValue != enabled {
		state.enabled.Store(enabled)

		// Notify listeners
		for _, cb := range callbacks {
			cb(flag, enabled)
		}
	}
}

// OnChange registers a callback for flag changes
func OnChange(callback func(Flag, bool)) {
	globalManager.OnChange(callback)
}

// OnChange registers a callback for flag changes
func (m *Manager) OnChange(callback func(Flag, bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, callback)
}

// GetAll returns all flag states
func GetAll() map[Flag]bool {
	return globalManager.GetAll()
}

// GetAll returns all flag states
func (m *Manager) GetAll() map[Flag]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[Flag]bool)
	for flag, state := range m.flags {
		result[flag] = state.enabled.Load()
	}
	return result
}

// GetMetadata returns metadata for a flag
func GetMetadata(flag Flag) (*FlagMetadata, bool) {
	return globalManager.GetMetadata(flag)
}

// GetMetadata returns metadata for a flag
func (m *Manager) GetMetadata(flag Flag) (*FlagMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metadata, exists := m.metadata[flag]
	return metadata, exists
}

// GetByCategory returns all flags in a category
func GetByCategory(category string) []Flag {
	return globalManager.GetByCategory(category)
}

// GetByCategory returns all flags in a category
func (m *Manager) GetByCategory(category string) []Flag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Flag
	for flag, metadata := range m.metadata {
		if metadata.Category == category {
			result = append(result, flag)
		}
	}
	return result
}

// Reset resets all flags to their default values
func Reset() {
	globalManager.Reset()
}

// Reset resets all flags to their default values
func (m *Manager) Reset() {
	m.mu.RLock()
	flagsCopy := make(map[Flag]*flagState)
	for k, v := range m.flags {
		flagsCopy[k] = v
	}
	m.mu.RUnlock()

	for flag, state := range flagsCopy {
		if metadata, exists := m.metadata[flag]; exists {
			m.setFlag(flag, metadata.DefaultValue)
			state.overridden = false
		}
	}
}

// flagToEnvVar converts a flag name to an environment variable name
func flagToEnvVar(flag Flag) string {
	return fmt.Sprintf("CORVUSDB_FEATURE_%s", strings.ToUpper(string(flag)))
}

// DebugString returns a debug string with all flag states
func DebugString() string {
	return globalManager.DebugString()
}

// DebugString returns a debug string with all flag states
func (m *Manager) DebugString() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Feature Flags:\n")

	// Group by category
	categories := make(map[string][]Flag)
	for flag, metadata := range m.metadata {
		categories[metadata.Category] = append(categories[metadata.Category], flag)
	}

	for category, flags := range categories {
		b.WriteString(fmt.Sprintf("\n%s:\n", category))
		for _, flag := range flags {
			state := m.flags[flag]
			metadata := m.metadata[flag]
			enabled := state.enabled.Load()

			status := "disabled"
			if enabled {
				status = "enabled"
			}

			override := ""
			if state.overridden {
				override = " (overridden)"
			}

			b.WriteString(fmt.Sprintf("  %-24s: %-8s [%s]%s - %s\n",
				flag, status, metadata.Stability, override, metadata.Description))
		}
	}

	return b.String()
}
