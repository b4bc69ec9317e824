package wire

import (
	"bytes"
	"encoding/json"

	"github.com/roach88/inklive/internal/issues"
)

// OutboundKind names a request sent to the supervisor.
type OutboundKind string

const (
	KindCompile              OutboundKind = "compile"
	KindStop                 OutboundKind = "play-stop-ink"
	KindContinueWithChoice   OutboundKind = "play-continue-with-choice-number"
	KindGetLocationInSource  OutboundKind = "get-location-in-source"
	KindGetRuntimePathSource OutboundKind = "get-runtime-path-in-source"
	KindEvaluateExpression   OutboundKind = "evaluate-expression"
)

// Outbound is one request to the supervisor.
// Only the fields relevant to Kind are set, and only those are encoded.
type Outbound struct {
	Kind        OutboundKind        `json:"kind"`
	SessionID   string              `json:"sessionId"`
	Instruction *CompileInstruction `json:"instruction"`
	Choice      int                 `json:"choiceNumber"`
	Offset      int                 `json:"offset"`
	RuntimePath string              `json:"runtimePath"`
	Expression  string              `json:"expression"`
}

// outboundJSON is the wire form of Outbound. A nil field is absent, so a
// zero choice number or offset is still sent for the kinds that use it.
type outboundJSON struct {
	Kind        OutboundKind        `json:"kind"`
	SessionID   string              `json:"sessionId"`
	Instruction *CompileInstruction `json:"instruction,omitempty"`
	Choice      *int                `json:"choiceNumber,omitempty"`
	Offset      *int                `json:"offset,omitempty"`
	RuntimePath *string             `json:"runtimePath,omitempty"`
	Expression  *string             `json:"expression,omitempty"`
}

// MarshalJSON encodes the fields Kind uses. HTML is not escaped, so ink
// source with <, > and & is sent as written.
func (m Outbound) MarshalJSON() ([]byte, error) {
	out := outboundJSON{Kind: m.Kind, SessionID: m.SessionID}
	switch m.Kind {
	case KindCompile:
		out.Instruction = m.Instruction
	case KindContinueWithChoice:
		out.Choice = &m.Choice
	case KindGetLocationInSource:
		out.Offset = &m.Offset
	case KindGetRuntimePathSource:
		out.RuntimePath = &m.RuntimePath
	case KindEvaluateExpression:
		out.Expression = &m.Expression
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Compile builds a compile request.
func Compile(instr CompileInstruction) Outbound {
	return Outbound{Kind: KindCompile, SessionID: instr.SessionID, Instruction: &instr}
}

// Stop builds a stop request for sessionID.
func Stop(sessionID string) Outbound {
	return Outbound{Kind: KindStop, SessionID: sessionID}
}

// ContinueWithChoice submits a choice number to sessionID.
func ContinueWithChoice(choice int, sessionID string) Outbound {
	return Outbound{Kind: KindContinueWithChoice, SessionID: sessionID, Choice: choice}
}

// GetLocationInSource resolves a runtime offset to a source location.
func GetLocationInSource(offset int, sessionID string) Outbound {
	return Outbound{Kind: KindGetLocationInSource, SessionID: sessionID, Offset: offset}
}

// GetRuntimePathInSource resolves a runtime path to a source location.
func GetRuntimePathInSource(runtimePath, sessionID string) Outbound {
	return Outbound{Kind: KindGetRuntimePathSource, SessionID: sessionID, RuntimePath: runtimePath}
}

// EvaluateExpression evaluates ink expression text in the story context.
func EvaluateExpression(expr, sessionID string) Outbound {
	return Outbound{Kind: KindEvaluateExpression, SessionID: sessionID, Expression: expr}
}

// InboundKind names an event sent by the supervisor.
type InboundKind string

const (
	KindCompileComplete          InboundKind = "compile-complete"
	KindGeneratedText            InboundKind = "play-generated-text"
	KindGeneratedErrors          InboundKind = "play-generated-errors"
	KindGeneratedTags            InboundKind = "play-generated-tags"
	KindGeneratedChoice          InboundKind = "play-generated-choice"
	KindRequiresInput            InboundKind = "play-requires-input"
	KindInklecateComplete        InboundKind = "inklecate-complete"
	KindExitDueToError           InboundKind = "play-exit-due-to-error"
	KindUnexpectedError          InboundKind = "play-story-unexpected-error"
	KindStoryStopped             InboundKind = "play-story-stopped"
	KindReturnLocation           InboundKind = "return-location-from-source"
	KindEvaluatedExpression      InboundKind = "play-evaluated-expression"
	KindEvaluatedExpressionError InboundKind = "play-evaluated-expression-error"
	KindReturnStats              InboundKind = "return-stats"
	KindNextIssue                InboundKind = "next-issue"
)

// Choice is one option offered by the story.
type Choice struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	// SourceSessionID is stamped by the live compiler on arrival so a later
	// Choose goes back to the session that offered it.
	SourceSessionID string `json:"sourceSessionId,omitempty"`
}

// TextResult is a chunk of story output.
type TextResult struct {
	Text string `json:"text"`
	// FromChoice is set when the text is the echo of a chosen option.
	FromChoice bool `json:"fromChoice,omitempty"`
}

// Location is a position in ink source.
type Location struct {
	Filename   string `json:"filename"`
	LineNumber int    `json:"lineNumber"`
}

// Stats is the supervisor's stats report, passed through as decoded JSON.
type Stats map[string]any

// Inbound is one event from the supervisor.
// Only the fields relevant to Kind are set.
type Inbound struct {
	Kind       InboundKind    `json:"kind"`
	SessionID  string         `json:"sessionId,omitempty"`
	Text       *TextResult    `json:"text,omitempty"`
	Errors     []issues.Issue `json:"errors,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Choice     *Choice        `json:"choice,omitempty"`
	ExportPath string         `json:"exportJsonPath,omitempty"`
	ExitCode   int            `json:"exitCode,omitempty"`
	Error      string         `json:"error,omitempty"`
	Location   *Location      `json:"location,omitempty"`
	Result     string         `json:"result,omitempty"`
	Stats      Stats          `json:"stats,omitempty"`
}
