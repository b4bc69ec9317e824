package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/inklive/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - filter to one compile session
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Journal  string          `json:"journal"`
	Session  string          `json:"session,omitempty"`
	Sessions []store.Session `json:"sessions"`
	Timeline []store.Entry   `json:"timeline"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEntries int `json:"total_entries"`
	Outbound     int `json:"outbound"`
	Inbound      int `json:"inbound"`
	Sink         int `json:"sink"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the journal of a live compile run",
		Long: `Print the journal written by "inklive run --db".

The output includes:
- Sessions: every compile session, with its purpose and file count
- Timeline: requests sent to the supervisor, events received from it,
  and notifications given to the UI, in journal order
- Stats: entry counts by direction

With --session only the entries of that session are shown.

Examples:
  inklive trace --db ./story.db
  inklive trace --db ./story.db --session main_ink_3f9a2c1_4
  inklive trace --db ./story.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "filter to one session id")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	// store.Open creates missing databases; a trace of nothing is a mistake.
	if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	result, err := buildTrace(ctx, st, opts.Database, opts.SessionID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}

	if len(result.Timeline) == 0 {
		if opts.SessionID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No entries found for session: %s\n", opts.SessionID)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty.")
		}
		return nil
	}

	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// buildTrace reads sessions and entries, filtered to sessionID when set.
func buildTrace(ctx context.Context, st *store.Store, journal, sessionID string) (TraceResult, error) {
	sessions, err := st.ReadSessions(ctx)
	if err != nil {
		return TraceResult{}, fmt.Errorf("read sessions: %w", err)
	}
	if sessionID != "" {
		kept := sessions[:0]
		for _, s := range sessions {
			if s.ID == sessionID {
				kept = append(kept, s)
			}
		}
		sessions = kept
	}

	entries, err := st.ReadEntries(ctx, store.Filter{SessionID: sessionID})
	if err != nil {
		return TraceResult{}, fmt.Errorf("read entries: %w", err)
	}

	result := TraceResult{
		Journal:  journal,
		Session:  sessionID,
		Sessions: sessions,
		Timeline: entries,
	}
	if result.Sessions == nil {
		result.Sessions = []store.Session{}
	}
	result.Stats.TotalEntries = len(entries)
	for _, e := range entries {
		switch e.Direction {
		case store.DirOut:
			result.Stats.Outbound++
		case store.DirIn:
			result.Stats.Inbound++
		case store.DirSink:
			result.Stats.Sink++
		}
	}
	return result, nil
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result})
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Journal: %s\n", result.Journal)
	if result.Session != "" {
		fmt.Fprintf(w, "Session: %s\n", result.Session)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Sessions ===")
	if len(result.Sessions) == 0 {
		fmt.Fprintln(w, "  (no compile sessions)")
	}
	for _, s := range result.Sessions {
		fmt.Fprintf(w, "  [%d] %s %s files=%d\n", s.StartedSeq, s.Purpose, s.ID, s.Files)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	for _, e := range result.Timeline {
		formatTimelineEntry(w, e, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Entries: %d\n", result.Stats.TotalEntries)
	fmt.Fprintf(w, "  Outbound:      %d\n", result.Stats.Outbound)
	fmt.Fprintf(w, "  Inbound:       %d\n", result.Stats.Inbound)
	fmt.Fprintf(w, "  Sink:          %d\n", result.Stats.Sink)

	return nil
}

// formatTimelineEntry formats a single journal entry for text output.
func formatTimelineEntry(w io.Writer, e store.Entry, verbose bool) {
	label := map[store.Direction]string{
		store.DirOut:  "OUT ",
		store.DirIn:   "IN  ",
		store.DirSink: "SINK",
	}[e.Direction]

	if e.SessionID != "" {
		fmt.Fprintf(w, "  [%d] %s %s %s\n", e.Seq, label, e.Kind, e.SessionID)
	} else {
		fmt.Fprintf(w, "  [%d] %s %s\n", e.Seq, label, e.Kind)
	}
	if verbose && e.Payload != "" && e.Payload != "{}" {
		fmt.Fprintf(w, "       Payload: %s\n", e.Payload)
	}
}
