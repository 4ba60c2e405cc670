package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/packsim/internal/packing"
)

type ExportData struct {
	Metadata *RunMetadata  `json:"metadata"`
	Frames   []frameRecord `json:"frames"`
}

// ExportJSON writes a run's metadata and frames as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	return writeExport(w, meta, frames)
}

// ExportJSONFile is ExportJSON into a new file at path.
func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID)
}

func writeExport(w io.Writer, meta *RunMetadata, frames []packing.Frame) error {
	data := ExportData{
		Metadata: meta,
		Frames:   make([]frameRecord, len(frames)),
	}
	for i := range frames {
		data.Frames[i] = toRecord(&frames[i])
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
