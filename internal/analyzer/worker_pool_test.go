package analyzer

import (
	"runtime"
	"sync"
	"testing"
)

func TestNewWorkerPool_Size(t *testing.T) {
	testCases := []struct {
		name    string
		workers int
		want    int
	}{
		{"Explicit", 4, 4},
		{"ZeroUsesCPUs", 0, runtime.NumCPU()},
		{"NegativeUsesCPUs", -3, runtime.NumCPU()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewWorkerPool(tc.workers).GetStats().Workers; got != tc.want {
				t.Errorf("Expected %d workers, got %d", tc.want, got)
			}
		})
	}
}

func TestWorkerPool_ChannelStatisticsFanOut(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	pool.Start()
	defer pool.Close()

	buffers := make([][]float64, 12)
	for i := range buffers {
		buffers[i] = []float64{float64(i), float64(2 * i), float64(5 * i), 0.5}
	}

	results := make([]float64, len(buffers))
	var mu sync.Mutex
	for i, samples := range buffers {
		i, samples := i, samples
		if !pool.Submit(func() {
			median := ComputeRobustStatistics(samples).Median
			mu.Lock()
			results[i] = median
			mu.Unlock()
		}) {
			t.Fatalf("Submit %d rejected", i)
		}
	}
	pool.Wait()

	for i, samples := range buffers {
		if want := ComputeRobustStatistics(samples).Median; results[i] != want {
			t.Errorf("Buffer %d: expected median %f, got %f", i, want, results[i])
		}
	}

	stats := pool.GetStats()
	if stats.TotalJobs != int64(len(buffers)) || stats.CompletedJobs != int64(len(buffers)) {
		t.Errorf("Expected %d total and completed jobs, got %+v", len(buffers), stats)
	}
	if stats.ActiveWorkers != 0 {
		t.Errorf("Expected no active workers, got %d", stats.ActiveWorkers)
	}
}

func TestWorkerPool_ConcurrentStatsReads(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	const numJobs = 20
	var readers sync.WaitGroup
	for i := 0; i < numJobs; i++ {
		pool.Submit(func() {
			ComputeRobustStatistics([]float64{1, 2, 3, 4, 5, 6, 7, 8})
		})
	}
	for i := 0; i < 8; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for j := 0; j < 10; j++ {
				if s := pool.GetStats(); s.CompletedJobs > s.TotalJobs {
					t.Errorf("Completed %d exceeds total %d", s.CompletedJobs, s.TotalJobs)
				}
			}
		}()
	}

	readers.Wait()
	pool.Wait()

	if got := pool.GetStats().CompletedJobs; got != numJobs {
		t.Errorf("Expected %d completed jobs, got %d", numJobs, got)
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	pool.Close()
	pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Expected Submit to be rejected after Close")
	}
	if stats := pool.GetStats(); stats.TotalJobs != 0 {
		t.Errorf("Expected 0 total jobs, got %d", stats.TotalJobs)
	}
}
