// Package harness runs live compiler scenarios against a virtual clock.
//
// A scenario drives a live.Manager through a recorded supervisor and sink,
// journals every message in an in-memory store, and asserts on the
// resulting trace, the manager's final state, and the journal tables.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  replay_pacing: sink
//	project:
//	  main: main.ink
//	  files:
//	    main.ink: |
//	      Hello.
//	steps:
//	  - action: set_project
//	  - action: advance
//	    duration: 1s
//	  - action: deliver
//	    inbound: { kind: compile-complete, session: $play }
//	    expect: { busy: false }
//	assertions:
//	  - type: trace_contains
//	    event: "sink compile-complete"
//	  - type: state
//	    expect: { current_turn: 0 }
//	  - type: final_state
//	    table: sessions
//	    where: { purpose: play }
//	    expect: { files: 1 }
//
// # Session References
//
// The session field of a delivered event is either a literal session id or
// one of $play, $export and $stats, resolved to the current id of that
// slot when the step runs. Namespace suffixes come from the scenario's
// suffixes list (default "test000"), so literal ids are stable:
// main_ink_test000_1, main_ink_test000_2, and so on.
//
// # Trace
//
// The trace is the journal read back in seq order. Each line is the
// direction followed by a short rendering of the message:
//
//	001 sink resetting main_ink_test000_1
//	002 out  compile main_ink_test000_1 play files=1
//	003 sink busy true
//	004 in   compile-complete main_ink_test000_1
//
// Trace assertions match by prefix on the line without its seq, with a
// single space after the direction: "out compile main_ink_test000_1".
//
// # Golden Files
//
// RunWithGolden compares the rendered trace and outcomes against
// testdata/golden/{name}.golden:
//
//	go test ./internal/harness -update
//
// # Determinism
//
// Virtual time only moves in advance steps, session suffixes are fixed,
// and the journal seq is logical. Running a scenario twice produces the
// same trace byte for byte.
package harness
