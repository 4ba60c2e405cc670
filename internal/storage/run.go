package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/packsim/internal/packing"
)

var compressionHeader = []string{
	"id", "scalar_radius", "iterations", "energy",
	"pair_contacts", "wall_contacts", "max_gradient", "speed",
}

// frameRecord is one line of frames.jsonl. Coordinates are split per axis.
type frameRecord struct {
	ID           int       `json:"id"`
	ScalarRadius float64   `json:"scalar_radius"`
	A            float64   `json:"a"`
	B            float64   `json:"b"`
	Iterations   int       `json:"iterations"`
	Energy       float64   `json:"energy"`
	X            []float64 `json:"x"`
	Y            []float64 `json:"y"`
	Angle        []float64 `json:"angle"`
	EnergyCurve  []float64 `json:"energy_curve"`
	PairContacts int       `json:"pair_contacts"`
	WallContacts int       `json:"wall_contacts"`
	MaxGradient  float64   `json:"max_gradient"`
	Speed        float64   `json:"speed"`
}

func toRecord(f *packing.Frame) frameRecord {
	return frameRecord{
		ID:           f.Index,
		ScalarRadius: f.ScalarRadius,
		A:            f.A,
		B:            f.B,
		Iterations:   f.Iterations,
		Energy:       f.Energy,
		X:            f.X(),
		Y:            f.Y(),
		Angle:        f.Angles(),
		EnergyCurve:  f.EnergyCurve,
		PairContacts: f.PairContacts,
		WallContacts: f.WallContacts,
		MaxGradient:  f.MaxGradient,
		Speed:        f.Speed,
	}
}

func (r *frameRecord) frame() packing.Frame {
	q := make([]float64, 0, len(r.X)+len(r.Y)+len(r.Angle))
	q = append(q, r.X...)
	q = append(q, r.Y...)
	q = append(q, r.Angle...)
	return packing.Frame{
		Index:        r.ID,
		ScalarRadius: r.ScalarRadius,
		A:            r.A,
		B:            r.B,
		Iterations:   r.Iterations,
		Energy:       r.Energy,
		Q:            q,
		EnergyCurve:  r.EnergyCurve,
		PairContacts: r.PairContacts,
		WallContacts: r.WallContacts,
		MaxGradient:  r.MaxGradient,
		Speed:        r.Speed,
	}
}

// Run records the frames of one simulation. It is a packing.Observer.
type Run struct {
	dir    string
	meta   RunMetadata
	frames *os.File
	enc    *json.Encoder
	rows   *os.File
	csv    *csv.Writer
}

func (r *Run) ID() string            { return r.meta.ID }
func (r *Run) Dir() string           { return r.dir }
func (r *Run) Metadata() RunMetadata { return r.meta }

func (r *Run) OnFrame(f packing.Frame) error {
	if err := r.enc.Encode(toRecord(&f)); err != nil {
		return err
	}
	row := []string{
		strconv.Itoa(f.Index),
		strconv.FormatFloat(f.ScalarRadius, 'f', 6, 64),
		strconv.Itoa(f.Iterations),
		strconv.FormatFloat(f.Energy, 'g', 10, 64),
		strconv.Itoa(f.PairContacts),
		strconv.Itoa(f.WallContacts),
		strconv.FormatFloat(f.MaxGradient, 'g', 10, 64),
		strconv.FormatFloat(f.Speed, 'f', 1, 64),
	}
	if err := r.csv.Write(row); err != nil {
		return err
	}
	r.csv.Flush()
	r.meta.Frames++
	return r.csv.Error()
}

// Finish closes the run's files and rewrites its metadata with the final
// energy curve, metric values and outcome.
func (r *Run) Finish(finals []float64, metrics map[string]float64, runErr error) error {
	closeErr := r.close()
	r.meta.FinalEnergyCurve = finals
	r.meta.Metrics = metrics
	r.meta.Status = StatusFinished
	if runErr != nil {
		r.meta.Status = StatusFailed
		r.meta.Error = runErr.Error()
	}
	if err := writeMetadata(r.dir, &r.meta); err != nil {
		return err
	}
	return closeErr
}

func (r *Run) close() error {
	r.csv.Flush()
	return errors.Join(r.csv.Error(), r.frames.Close(), r.rows.Close())
}

// LoadFrames reads every recorded frame of a run in order.
func (s *Store) LoadFrames(runID string) ([]packing.Frame, error) {
	file, err := os.Open(filepath.Join(s.runDir(runID), framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	frames := make([]packing.Frame, 0)
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<30)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec frameRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, err
		}
		frames = append(frames, rec.frame())
	}
	return frames, sc.Err()
}

// Compression is one row of compressions.csv.
type Compression struct {
	ID           int
	ScalarRadius float64
	Iterations   int
	Energy       float64
	PairContacts int
	WallContacts int
	MaxGradient  float64
	Speed        float64
}

func (s *Store) LoadCompressions(runID string) ([]Compression, error) {
	file, err := os.Open(filepath.Join(s.runDir(runID), compressionsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(compressionHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Compression{}, nil
	}

	rows := make([]Compression, 0, len(records)-1)
	for _, rec := range records[1:] {
		var c Compression
		var errs []error
		atoi := func(s string) int {
			v, err := strconv.Atoi(s)
			errs = append(errs, err)
			return v
		}
		atof := func(s string) float64 {
			v, err := strconv.ParseFloat(s, 64)
			errs = append(errs, err)
			return v
		}
		c.ID = atoi(rec[0])
		c.ScalarRadius = atof(rec[1])
		c.Iterations = atoi(rec[2])
		c.Energy = atof(rec[3])
		c.PairContacts = atoi(rec[4])
		c.WallContacts = atoi(rec[5])
		c.MaxGradient = atof(rec[6])
		c.Speed = atof(rec[7])
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
		rows = append(rows, c)
	}
	return rows, nil
}
