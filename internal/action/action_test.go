package action

import (
	"errors"
	"testing"
)

func TestTriggerOnlyFiresMatchingTiming(t *testing.T) {
	var fired []string
	mkAction := func(name string, when Timing) Action {
		return &Named{Name: name, When: when, Fn: func() error {
			fired = append(fired, name)
			return nil
		}}
	}
	d := NewDispatcher(
		mkAction("always-prior", AlwaysPrior),
		mkAction("on-exchange-prior", OnExchangePrior),
		mkAction("always-post", AlwaysPost),
	)

	if err := d.Trigger(AlwaysPrior); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(fired) != 1 || fired[0] != "always-prior" {
		t.Errorf("fired = %v, want [always-prior]", fired)
	}

	fired = nil
	if err := d.Trigger(AlwaysPrior | OnExchangePrior); err != nil {
		t.Fatalf("Trigger combined mask: %v", err)
	}
	if len(fired) != 2 {
		t.Errorf("fired = %v, want 2 actions", fired)
	}
}

func TestTriggerPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher(&Named{Name: "fails", When: AlwaysPost, Fn: func() error { return boom }})
	if err := d.Trigger(AlwaysPost); !errors.Is(err, boom) {
		t.Errorf("Trigger error = %v, want %v", err, boom)
	}
}

func TestBeforeIterationAndIterationRejectedAreDistinctBits(t *testing.T) {
	var checkpointed, restored bool
	d := NewDispatcher(
		&Named{Name: WriteIterationCheckpoint, When: BeforeIteration, Fn: func() error { checkpointed = true; return nil }},
		&Named{Name: ReadIterationCheckpoint, When: IterationRejected, Fn: func() error { restored = true; return nil }},
	)

	if err := d.Trigger(BeforeIteration); err != nil {
		t.Fatalf("Trigger(BeforeIteration): %v", err)
	}
	if !checkpointed || restored {
		t.Errorf("checkpointed=%v restored=%v, want true,false", checkpointed, restored)
	}

	checkpointed, restored = false, false
	if err := d.Trigger(IterationRejected); err != nil {
		t.Fatalf("Trigger(IterationRejected): %v", err)
	}
	if checkpointed || !restored {
		t.Errorf("checkpointed=%v restored=%v, want false,true", checkpointed, restored)
	}
}

func TestRequiredActionsLifecycle(t *testing.T) {
	r := NewRequiredActions()
	if r.IsRequired(PlotOutput) {
		t.Fatal("IsRequired true before Require")
	}
	r.Require(PlotOutput)
	if !r.IsRequired(PlotOutput) {
		t.Fatal("IsRequired false after Require")
	}
	r.Fulfil(PlotOutput)
	if r.IsRequired(PlotOutput) {
		t.Fatal("IsRequired true after Fulfil")
	}
}
