package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/sitesift/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, sr *model.SiteReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, sr *model.SiteReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, sr)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Fatalf("expected 3 steps, got %d", p.StepCount())
	}

	names := p.StepNames()
	want := []string{"first", "second", "third"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("step %d = %q, want %q", i, names[i], name)
		}
	}
}

// TestPipelineExecute tests step execution behavior.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"a", "b", "c"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.SiteReport) error {
					order = append(order, name)
					return nil
				},
			})
		}

		sr := model.NewSiteReport("https://example.com", "scrape")
		if err := p.Execute(context.Background(), sr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
			t.Errorf("execution order = %v, want [a b c]", order)
		}
		if len(sr.PerformedSteps) != 3 {
			t.Errorf("performed steps = %v, want 3 entries", sr.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("traversal broke")
		failing := &mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *model.SiteReport) error {
				return wantErr
			},
		}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		sr := model.NewSiteReport("https://example.com", "scrape")
		err := p.Execute(context.Background(), sr)

		if !errors.Is(err, wantErr) {
			t.Errorf("error = %v, want %v", err, wantErr)
		}
		if after.callCount != 0 {
			t.Error("step after a failure should not run by default")
		}
		if sr.ErrorMessage != wantErr.Error() {
			t.Errorf("error message = %q, want %q", sr.ErrorMessage, wantErr.Error())
		}
	})

	t.Run("continues past errors when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{
			name: "failing",
			doFunc: func(_ context.Context, _ *model.SiteReport) error {
				return errors.New("traversal broke")
			},
		}
		after := &mockStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		sr := model.NewSiteReport("https://example.com", "scrape")
		if err := p.Execute(context.Background(), sr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if after.callCount != 1 {
			t.Error("step after a failure should run with continueOnError")
		}
		if sr.Error == nil {
			t.Error("failure should still be recorded in the report")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		sr := model.NewSiteReport("https://example.com", "scrape")
		err := p.Execute(ctx, sr)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if step.callCount != 0 {
			t.Error("steps should not run after cancellation")
		}
		if !sr.TimedOut {
			t.Error("cancellation should mark the report as timed out")
		}
	})
}
