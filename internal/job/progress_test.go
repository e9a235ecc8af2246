package job

import (
	"testing"
	"time"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/store"
)

func TestProgress_WalksStages(t *testing.T) {
	st := store.NewMemoryStore(time.Hour, time.Hour)
	j := model.NewJob("job-1")
	p := NewProgress(st, j)

	if err := p.Start(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if j.Status != model.StatusRunning || j.StartedAt == nil {
		t.Fatalf("Expected running job with start time, got %s", j.Status)
	}

	stages := []struct {
		step    model.JobStep
		percent int
	}{
		{model.StepInit, 5},
		{model.StepExtract, 25},
		{model.StepAnalyze, 40},
		{model.StepExtractNames, 55},
		{model.StepVerify, 85},
		{model.StepCluster, 95},
	}

	for _, stage := range stages {
		if err := p.Step(stage.step); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if j.Percent != stage.percent {
			t.Errorf("Expected %d%% after %s, got %d%%", stage.percent, stage.step, j.Percent)
		}
		if j.CurrentStep != stage.step {
			t.Errorf("Expected current step %s, got %s", stage.step, j.CurrentStep)
		}
	}

	result := &model.Result{Stats: model.Stats{CitationCount: 2}}
	if err := p.Complete(result); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, err := st.Get("job-1")
	if err != nil {
		t.Fatalf("Expected stored job, got %v", err)
	}
	if stored.Status != model.StatusCompleted || stored.Percent != 100 {
		t.Errorf("Expected completed at 100%%, got %s at %d%%", stored.Status, stored.Percent)
	}
	if stored.Result == nil || stored.Result.Stats.CitationCount != 2 {
		t.Error("Expected result persisted with the job")
	}
	if stored.FinishedAt == nil {
		t.Error("Expected finish time set")
	}
}

func TestProgress_MonotonicPercent(t *testing.T) {
	st := store.NewMemoryStore(time.Hour, time.Hour)
	j := model.NewJob("job-1")
	p := NewProgress(st, j)

	if err := p.Step(model.StepVerify); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if j.Percent != 85 {
		t.Fatalf("Expected 85%%, got %d%%", j.Percent)
	}

	// An out-of-order stage report must never move percent backward
	if err := p.Step(model.StepExtract); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if j.Percent != 85 {
		t.Errorf("Expected percent held at 85%%, got %d%%", j.Percent)
	}
}

func TestProgress_TerminalNeverRewritten(t *testing.T) {
	st := store.NewMemoryStore(time.Hour, time.Hour)
	j := model.NewJob("job-1")
	p := NewProgress(st, j)

	if err := p.Step(model.StepExtract); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := p.Fail("verification source unreachable"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := p.Step(model.StepVerify); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := p.Complete(&model.Result{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored, err := st.Get("job-1")
	if err != nil {
		t.Fatalf("Expected stored job, got %v", err)
	}
	if stored.Status != model.StatusFailed {
		t.Errorf("Expected failed job to stay failed, got %s", stored.Status)
	}
	if stored.Message != "verification source unreachable" {
		t.Errorf("Expected failure message preserved, got %q", stored.Message)
	}
	if stored.Percent != 25 {
		t.Errorf("Expected percent frozen at 25%%, got %d%%", stored.Percent)
	}
	if stored.Result != nil {
		t.Error("Expected no result on a failed job")
	}
}
