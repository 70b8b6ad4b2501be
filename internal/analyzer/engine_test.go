package analyzer

import (
	"math"
	"testing"

	"github.com/anime-shed/channel-engine/pkg/models"
)

func newTestEngine(t *testing.T) Engine {
	t.Helper()
	e, err := NewEngine(DefaultOptions().WithMaxWorkers(2))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNewEngine_RejectsInvalidOptions(t *testing.T) {
	if _, err := NewEngine(DefaultOptions().WithMixThresholds(0, 0.35)); err == nil {
		t.Error("Expected error for zero trigger ratio")
	}
}

func TestEngine_ComputeAllMatchesSequential(t *testing.T) {
	e := newTestEngine(t)

	buffers := map[string][]float64{
		"Ha":   {0.1, 0.2, 0.3, 0.9},
		"Oiii": {0.05, 0.06, 0.05, 0.5, 0.07},
		"Sii":  {0.02, 0.03},
		"none": nil,
	}

	got := e.ComputeAll(buffers)
	if len(got) != len(buffers) {
		t.Fatalf("Expected %d results, got %d", len(buffers), len(got))
	}
	for id, samples := range buffers {
		if want := e.ComputeStatistics(samples); got[id] != want {
			t.Errorf("%s: expected %+v, got %+v", id, want, got[id])
		}
	}

	stats := e.PoolStats()
	if stats.TotalJobs != int64(len(buffers)) {
		t.Errorf("Expected %d pool jobs, got %d", len(buffers), stats.TotalJobs)
	}
}

func TestEngine_ComputeAllAfterClose(t *testing.T) {
	e := newTestEngine(t)
	e.Close()

	got := e.ComputeAll(map[string][]float64{"G": {1, 2, 3}})
	if got["G"].Median != 2 {
		t.Errorf("Expected inline computation after close, got %+v", got["G"])
	}
}

func TestEngine_DecisionFlow(t *testing.T) {
	e := newTestEngine(t)

	// Three channels with increasing signal above a flat 0.1 floor
	buffers := map[string][]float64{}
	for id, peak := range map[string]float64{"R": 0.3, "G": 0.9, "B": 0.6} {
		samples := make([]float64, 100)
		for i := range samples {
			samples[i] = 0.1
			if i%4 == 0 {
				samples[i] = peak
			}
		}
		buffers[id] = samples
	}

	stats := e.ComputeAll(buffers)
	records := make([]models.ChannelRecord, 0, len(stats))
	strengths := make(map[string]float64, len(stats))
	for _, id := range []string{"R", "G", "B"} {
		records = append(records, NewChannelRecord(id, stats[id]))
		strengths[id] = stats[id].Strength
	}

	ref, err := e.SelectReference(records, models.ReferenceHighest)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ref.ID != "G" {
		t.Errorf("Expected G as highest-delta reference, got %s", ref.ID)
	}

	mix := e.SynthesizeMix(models.ChannelMapping{Red: "R", Green: "G", Blue: "B"}, strengths)
	if mix.PassThrough {
		t.Fatalf("Expected blended mix, got pass-through: %+v", mix)
	}
	if mix.Green != "G" {
		t.Errorf("Expected green anchor to stay plain, got %q", mix.Green)
	}
	if mix.RedAlpha <= mix.BlueAlpha {
		t.Errorf("Expected weaker red to borrow more: red %f, blue %f", mix.RedAlpha, mix.BlueAlpha)
	}
	if math.IsNaN(mix.RedAlpha) || mix.RedAlpha > e.Options().MixMaxAlpha {
		t.Errorf("Red alpha out of range: %f", mix.RedAlpha)
	}
}

func TestEngine_FindBackgroundRegion(t *testing.T) {
	e := newTestEngine(t)

	region, err := e.FindBackgroundRegion(createTestPlane(200, 200, 0.3), 50, 50)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if region != (models.Region{Left: 16, Top: 16, Width: 50, Height: 50}) {
		t.Errorf("Unexpected region %+v", region)
	}
}
