package models

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveDir is the root under which runs are stored, one directory per save name.
var SaveDir = ".saves"

// RunMeta is the small header of a saved run.
type RunMeta struct {
	Identity string `yaml:"identity"`
	Seed     int64  `yaml:"seed"`
	Victory  bool   `yaml:"victory,omitempty"`
	GameOver bool   `yaml:"game_over,omitempty"`
}

// RunSnapshot is everything needed to resume a run between encounters.
// Combat sessions are never persisted.
type RunSnapshot struct {
	Meta   RunMeta     `yaml:"meta"`
	Player PlayerState `yaml:"player"`
	Grid   Grid        `yaml:"grid"`
}

func (s *RunSnapshot) Save(name string) error {
	dir := filepath.Join(SaveDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	files := []struct {
		name string
		v    any
	}{
		{"run.yaml", s.Meta},
		{"player.yaml", s.Player},
		{"map.yaml", s.Grid},
	}
	for _, f := range files {
		data, err := yaml.Marshal(f.v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, f.name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func LoadRun(name string) (*RunSnapshot, error) {
	dir := filepath.Join(SaveDir, name)

	var snap RunSnapshot
	files := []struct {
		name string
		v    any
	}{
		{"run.yaml", &snap.Meta},
		{"player.yaml", &snap.Player},
		{"map.yaml", &snap.Grid},
	}
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, f.v); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}
	if len(snap.Grid.Nodes) != snap.Grid.Size*snap.Grid.Size {
		return nil, fmt.Errorf("save %q: map has %d nodes for size %d", name, len(snap.Grid.Nodes), snap.Grid.Size)
	}
	return &snap, nil
}

func ListRuns() ([]string, error) {
	if _, err := os.Stat(SaveDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(SaveDir)
	if err != nil {
		return nil, err
	}

	var runs []string
	for _, entry := range entries {
		if entry.IsDir() {
			// run.yaml marks a complete save
			metaPath := filepath.Join(SaveDir, entry.Name(), "run.yaml")
			if _, err := os.Stat(metaPath); err == nil {
				runs = append(runs, entry.Name())
			}
		}
	}
	return runs, nil
}
