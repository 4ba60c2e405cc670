package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/packsim/internal/config"
)

const (
	metadataFile     = "metadata.json"
	framesFile       = "frames.jsonl"
	compressionsFile = "compressions.csv"
)

const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Timestamp        time.Time          `json:"timestamp"`
	Status           string             `json:"status"`
	Error            string             `json:"error,omitempty"`
	Config           *config.Config     `json:"config"`
	Frames           int                `json:"frames"`
	FinalEnergyCurve []float64          `json:"final_energy_curve"`
	Metrics          map[string]float64 `json:"metrics,omitempty"`
}

func runName(cfg *config.Config) string {
	return fmt.Sprintf("%s-n%d-m%d-%s", cfg.Boundary.Shape, cfg.Bodies, cfg.SpheresPerBody, cfg.Potential.Family)
}

func (s *Store) runDir(id string) string { return filepath.Join(s.baseDir, id) }

// Create opens a new run directory and writes its metadata.
func (s *Store) Create(cfg *config.Config) (*Run, error) {
	id := uuid.NewString()
	dir := s.runDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	meta := RunMetadata{
		ID:        id,
		Name:      runName(cfg),
		Timestamp: time.Now(),
		Status:    StatusRunning,
		Config:    cfg,
	}
	if err := writeMetadata(dir, &meta); err != nil {
		return nil, err
	}

	frames, err := os.Create(filepath.Join(dir, framesFile))
	if err != nil {
		return nil, err
	}
	rows, err := os.Create(filepath.Join(dir, compressionsFile))
	if err != nil {
		frames.Close()
		return nil, err
	}

	r := &Run{
		dir:    dir,
		meta:   meta,
		frames: frames,
		enc:    json.NewEncoder(frames),
		rows:   rows,
		csv:    csv.NewWriter(rows),
	}
	if err := r.csv.Write(compressionHeader); err != nil {
		r.close()
		return nil, err
	}
	return r, nil
}

func writeMetadata(dir string, meta *RunMetadata) error {
	f, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Resolve accepts a full run id or a unique prefix of one.
func (s *Store) Resolve(prefix string) (string, error) {
	if _, err := os.Stat(filepath.Join(s.runDir(prefix), metadataFile)); err == nil {
		return prefix, nil
	}
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	match := ""
	for _, r := range runs {
		if len(r.ID) >= len(prefix) && r.ID[:len(prefix)] == prefix {
			if match != "" {
				return "", fmt.Errorf("storage: run prefix %q is ambiguous", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}
