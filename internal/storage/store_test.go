package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/packsim/internal/config"
	"github.com/san-kum/packsim/internal/packing"
)

func testFrame(index int, radius float64) packing.Frame {
	return packing.Frame{
		Index:        index,
		ScalarRadius: radius,
		A:            radius,
		B:            radius,
		Iterations:   120,
		Energy:       3.5e-8,
		Q:            []float64{1, 2, -1, -2, 0.5, 1.5},
		EnergyCurve:  []float64{0.4, 0.01},
		PairContacts: 1,
		WallContacts: 0,
		MaxGradient:  0.002,
		Speed:        15000,
	}
}

func TestRunRecordsFrames(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Bodies = 2
	run, err := st.Create(cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if run.ID() == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(run.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Status != StatusRunning {
		t.Errorf("expected status running, got %s", meta.Status)
	}

	for i, r := range []float64{10, 9.5} {
		if err := run.OnFrame(testFrame(i, r)); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if err := run.Finish([]float64{1e-8, 3.5e-8}, map[string]float64{"packing_fraction": 0.4}, nil); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	meta, err = st.Load(run.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Status != StatusFinished || meta.Frames != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Config.Bodies != 2 {
		t.Errorf("expected 2 bodies in stored config, got %d", meta.Config.Bodies)
	}
	if len(meta.FinalEnergyCurve) != 2 || meta.Metrics["packing_fraction"] != 0.4 {
		t.Errorf("unexpected final curve or metrics %+v", meta)
	}

	frames, err := st.LoadFrames(run.ID())
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	want := testFrame(1, 9.5)
	got := frames[1]
	if got.Index != 1 || got.ScalarRadius != 9.5 || got.Energy != want.Energy {
		t.Errorf("frame mismatch: %+v", got)
	}
	for i := range want.Q {
		if got.Q[i] != want.Q[i] {
			t.Errorf("q[%d]: expected %g, got %g", i, want.Q[i], got.Q[i])
		}
	}

	rows, err := st.LoadCompressions(run.ID())
	if err != nil {
		t.Fatalf("load compressions failed: %v", err)
	}
	if len(rows) != 2 || rows[1].ScalarRadius != 9.5 || rows[1].Iterations != 120 {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestFinishRecordsFailure(t *testing.T) {
	st := New(t.TempDir())
	run, err := st.Create(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := run.Finish(nil, nil, errors.New("cell overflow")); err != nil {
		t.Fatal(err)
	}
	meta, _ := st.Load(run.ID())
	if meta.Status != StatusFailed || meta.Error != "cell overflow" {
		t.Errorf("expected failed status, got %+v", meta)
	}
}

func TestListAndResolve(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list, got %v, %v", runs, err)
	}

	a, _ := st.Create(config.DefaultConfig())
	a.Finish(nil, nil, nil)
	b, _ := st.Create(config.DefaultConfig())
	b.Finish(nil, nil, nil)
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	id, err := st.Resolve(a.ID()[:12])
	if err != nil || id != a.ID() {
		t.Errorf("resolve prefix: got %q, %v", id, err)
	}
	if _, err := st.Resolve("zzzz"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	run, _ := st.Create(config.DefaultConfig())
	run.OnFrame(testFrame(0, 10))
	run.Finish([]float64{3.5e-8}, nil, nil)

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, run.ID()); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Metadata RunMetadata `json:"metadata"`
		Frames   []struct {
			ID int       `json:"id"`
			X  []float64 `json:"x"`
		} `json:"frames"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Metadata.ID != run.ID() || len(out.Frames) != 1 {
		t.Fatalf("unexpected export %+v", out)
	}
	if len(out.Frames[0].X) != 2 || out.Frames[0].X[1] != 2 {
		t.Errorf("expected x [1 2], got %v", out.Frames[0].X)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := st.ExportJSONFile(path, run.ID()); err != nil {
		t.Fatal(err)
	}
}
