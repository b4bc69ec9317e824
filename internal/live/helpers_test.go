package live_test

import (
	"testing"
	"time"

	"github.com/roach88/inklive/internal/config"
	"github.com/roach88/inklive/internal/i18n"
	"github.com/roach88/inklive/internal/live"
	"github.com/roach88/inklive/internal/project"
	"github.com/roach88/inklive/internal/session"
	"github.com/roach88/inklive/internal/testutil"
	"github.com/roach88/inklive/internal/wire"
)

const mainSource = "Hello.\n* [Left] -> left\n* [Right] -> right\n"

// fixture wires a Manager to a recording supervisor, a recording sink and a
// virtual clock.
type fixture struct {
	t     *testing.T
	m     *live.Manager
	sup   *testutil.RecordingSupervisor
	sink  *testutil.RecordingSink
	clock *testutil.FakeClock
	ws    *project.Workspace
	cfg   config.Config
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.Default()
	for _, f := range mutate {
		f(&cfg)
	}
	f := &fixture{
		t:     t,
		sup:   testutil.NewRecordingSupervisor(),
		sink:  testutil.NewRecordingSink(),
		clock: testutil.NewFakeClock(),
		ws:    testutil.NewWorkspace("main.ink", map[string]string{"main.ink": mainSource}),
		cfg:   cfg,
	}
	f.m = live.New(cfg, f.sup, f.sink,
		live.WithClock(f.clock),
		live.WithSuffixSource(session.NewFixedSuffix("test000", "test001")),
		live.WithLocalizer(i18n.New("en")),
	)
	return f
}

// loaded sets the project and runs the first reload.
func (f *fixture) loaded() string {
	f.t.Helper()
	f.m.SetProject(f.ws)
	if err := f.m.Reload(); err != nil {
		f.t.Fatalf("reload: %v", err)
	}
	return f.m.Snapshot().PlaySession
}

// advance moves virtual time forward in steps, calling Tick every tick
// interval, and runs at(elapsed) before each step.
func (f *fixture) advance(total, step time.Duration, at func(elapsed time.Duration)) {
	f.t.Helper()
	for elapsed := time.Duration(0); elapsed <= total; elapsed += step {
		if at != nil {
			at(elapsed)
		}
		if elapsed%f.cfg.TickInterval == 0 {
			if err := f.m.Tick(); err != nil {
				f.t.Fatalf("tick at %s: %v", elapsed, err)
			}
		}
		f.clock.Advance(step)
	}
}

func (f *fixture) deliver(msgs ...wire.Inbound) {
	for _, msg := range msgs {
		f.m.Handle(msg)
	}
}

func requiresInput(id string) wire.Inbound {
	return wire.Inbound{Kind: wire.KindRequiresInput, SessionID: id}
}

func choiceOffered(id string, n int, text string) wire.Inbound {
	return wire.Inbound{Kind: wire.KindGeneratedChoice, SessionID: id, Choice: &wire.Choice{Number: n, Text: text}}
}

func compileComplete(id string) wire.Inbound {
	return wire.Inbound{Kind: wire.KindCompileComplete, SessionID: id}
}
