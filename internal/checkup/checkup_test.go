package checkup

import (
	"context"
	"testing"
)

type stubCheck struct {
	name   string
	result Result
	ran    *[]string
}

func (s stubCheck) Name() string { return s.name }

func (s stubCheck) Run(_ context.Context) Result {
	*s.ran = append(*s.ran, s.name)
	return s.result
}

func TestRunnerAllPassing(t *testing.T) {
	var ran []string
	runner := NewRunner(
		Entry{Check: stubCheck{"a", Pass("ok"), &ran}},
		Entry{Check: stubCheck{"b", Pass("ok"), &ran}},
		Entry{Check: stubCheck{"c", Pass("ok"), &ran}},
	)
	report := runner.Run(context.Background())
	if report.Failures != 0 || report.Warnings != 0 || report.Halted {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(report.Outcomes))
	}
	if len(ran) != 3 || ran[0] != "a" || ran[1] != "b" || ran[2] != "c" {
		t.Fatalf("checks ran out of order: %v", ran)
	}
}

func TestRunnerHaltsOnFatalFailure(t *testing.T) {
	var ran []string
	runner := NewRunner(
		Entry{Check: stubCheck{"first", Pass("ok"), &ran}},
		Entry{Check: stubCheck{"fatal", Fail("broken"), &ran}},
		Entry{Check: stubCheck{"never", Pass("ok"), &ran}},
	)
	report := runner.Run(context.Background())
	if !report.Halted {
		t.Fatal("expected pipeline to halt")
	}
	if report.Failures != 1 {
		t.Fatalf("failures = %d, want 1", report.Failures)
	}
	for _, name := range ran {
		if name == "never" {
			t.Fatal("check after fatal failure must not run")
		}
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(report.Outcomes))
	}
}

func TestRunnerContinuesPastWarnAndAdvisoryFail(t *testing.T) {
	var ran []string
	runner := NewRunner(
		Entry{Check: stubCheck{"warns", Warn("degraded"), &ran}},
		Entry{Check: stubCheck{"advisory", Fail("probe down"), &ran}, Advisory: true},
		Entry{Check: stubCheck{"last", Pass("ok"), &ran}},
	)
	report := runner.Run(context.Background())
	if report.Halted {
		t.Fatal("advisory failure must not halt the pipeline")
	}
	if len(ran) != 3 {
		t.Fatalf("expected all checks to run, ran %v", ran)
	}
	if report.Warnings != 1 || report.Failures != 1 {
		t.Fatalf("counts = %d warnings / %d failures, want 1/1", report.Warnings, report.Failures)
	}
}

func TestRunnerObserverSeesOrderedOutcomes(t *testing.T) {
	var ran []string
	runner := NewRunner(
		Entry{Check: stubCheck{"one", Pass("ok"), &ran}},
		Entry{Check: stubCheck{"two", Warn("meh"), &ran}},
	)
	var seen []string
	runner.OnResult(func(o Outcome) { seen = append(seen, o.Name) })
	runner.Run(context.Background())
	if len(seen) != 2 || seen[0] != "one" || seen[1] != "two" {
		t.Fatalf("observer saw %v", seen)
	}
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	var ran []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(Entry{Check: stubCheck{"a", Pass("ok"), &ran}})
	report := runner.Run(ctx)
	if len(ran) != 0 {
		t.Fatalf("no checks should run after cancellation, ran %v", ran)
	}
	if !report.Halted {
		t.Fatal("cancelled run should report halted")
	}
}
