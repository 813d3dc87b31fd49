package workflow

import (
	"strings"

	"pressline/internal/stage"
)

// StageSet lists the processors of one pipeline, in cycle order.
type StageSet struct {
	Fetcher    stage.Processor
	Cleaner    stage.Processor
	Summarizer stage.Processor
	Selector   stage.Processor
	Writer     stage.Processor
	Publisher  stage.Processor
}

// ConfigureStages registers the pipeline stages. Nil entries are left out
// of the cycle.
func (m *Manager) ConfigureStages(set StageSet) {
	ordered := []stage.Processor{set.Fetcher, set.Cleaner, set.Summarizer, set.Selector, set.Writer, set.Publisher}
	stages := make([]stage.Processor, 0, len(ordered))
	for _, p := range ordered {
		if p != nil {
			stages = append(stages, p)
		}
	}
	m.mu.Lock()
	m.stages = stages
	m.mu.Unlock()
}

// StageNames returns the registered stage names in cycle order.
func (m *Manager) StageNames() []string {
	stages := m.snapshotStages()
	names := make([]string, 0, len(stages))
	for _, p := range stages {
		names = append(names, p.Name())
	}
	return names
}

func (m *Manager) snapshotStages() []stage.Processor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]stage.Processor(nil), m.stages...)
}

func (m *Manager) lookupStage(name string) stage.Processor {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range m.snapshotStages() {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
