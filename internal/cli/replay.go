package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/inklive/internal/store"
	"github.com/roach88/inklive/internal/wire"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string `json:"session"`
	Purpose       string `json:"purpose"`
	Outbound      int    `json:"outbound"`
	Inbound       int    `json:"inbound"`
	Choices       []int  `json:"choices"`
	Issues        int    `json:"issues"`
	Outcome       string `json:"outcome"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// Session outcomes, from the last terminal event the supervisor sent.
const (
	OutcomePending   = "pending"
	OutcomeCompiled  = "compiled"
	OutcomeExported  = "exported"
	OutcomeStats     = "stats"
	OutcomeAwaiting  = "awaiting-input"
	OutcomeStopped   = "stopped"
	OutcomeFailed    = "failed"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a journal and summarise each session",
		Long: `Read a journal written by "inklive run --db" back, session by session.

For every compile session this reports the choices submitted, the issues
the compiler reported, and how the session ended. The journal is read
twice and both readings are compared, so a journal that changes
underneath the reader is reported as non-deterministic.

Exit codes:
  0 - All sessions read back identically
  1 - Determinism verification failed (differences detected)
  2 - Command error (journal not found, etc.)

Examples:
  inklive replay --db ./story.db
  inklive replay --db ./story.db --session main_ink_3f9a2c1_4
  inklive replay --db ./story.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	var sessions []store.Session
	if opts.SessionID != "" {
		sess, err := st.ReadSession(ctx, opts.SessionID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.SessionID), err)
		}
		sessions = []store.Session{sess}
	} else {
		sessions, err = st.ReadSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}

	if len(sessions) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in journal.")
		return nil
	}

	for _, sess := range sessions {
		sessResult, err := replayAndVerifySession(ctx, st, sess)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", sess.ID), err)
		}
		result.Sessions = append(result.Sessions, sessResult)
		if !sessResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerifySession reads one session twice and summarises it.
func replayAndVerifySession(ctx context.Context, st *store.Store, sess store.Session) (ReplaySessionResult, error) {
	read := func() ([]store.Entry, []wire.Inbound, error) {
		entries, err := st.ReadEntries(ctx, store.Filter{SessionID: sess.ID})
		if err != nil {
			return nil, nil, err
		}
		inbound, err := st.ReadInbound(ctx, sess.ID)
		if err != nil {
			return nil, nil, err
		}
		return entries, inbound, nil
	}

	entries1, inbound1, err := read()
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	entries2, inbound2, err := read()
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	result := ReplaySessionResult{
		Session:       sess.ID,
		Purpose:       sess.Purpose,
		Inbound:       len(inbound1),
		Choices:       []int{},
		Outcome:       OutcomePending,
		Deterministic: reflect.DeepEqual(entries1, entries2) && reflect.DeepEqual(inbound1, inbound2),
	}

	for _, e := range entries1 {
		if e.Direction != store.DirOut {
			continue
		}
		result.Outbound++
		if e.Kind != string(wire.KindContinueWithChoice) {
			continue
		}
		var msg wire.Outbound
		if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
			return ReplaySessionResult{}, fmt.Errorf("decode outbound seq %d: %w", e.Seq, err)
		}
		result.Choices = append(result.Choices, msg.Choice)
	}

	for _, msg := range inbound1 {
		result.Issues += len(msg.Errors)
		if outcome, ok := sessionOutcome(msg); ok {
			result.Outcome = outcome
		}
	}

	return result, nil
}

// sessionOutcome maps terminal supervisor events to an outcome.
func sessionOutcome(msg wire.Inbound) (string, bool) {
	switch msg.Kind {
	case wire.KindCompileComplete:
		return OutcomeCompiled, true
	case wire.KindInklecateComplete:
		return OutcomeExported, true
	case wire.KindReturnStats:
		return OutcomeStats, true
	case wire.KindRequiresInput:
		return OutcomeAwaiting, true
	case wire.KindExitDueToError, wire.KindUnexpectedError:
		return OutcomeFailed, true
	case wire.KindStoryStopped:
		return OutcomeStopped, true
	}
	return "", false
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s (%s)\n", status, s.Session, s.Purpose)
		fmt.Fprintf(w, "  Outcome: %s\n", s.Outcome)
		if verbose {
			fmt.Fprintf(w, "  Outbound: %d\n", s.Outbound)
			fmt.Fprintf(w, "  Inbound:  %d\n", s.Inbound)
			fmt.Fprintf(w, "  Issues:   %d\n", s.Issues)
		}
		if len(s.Choices) > 0 {
			fmt.Fprintf(w, "  Choices: %v\n", s.Choices)
		}

		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
