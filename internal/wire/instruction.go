package wire

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/inklive/internal/project"
	"github.com/roach88/inklive/internal/session"
)

// Mode selects what a compile session is for.
type Mode struct {
	Play            bool
	Export          bool
	Stats           bool
	InkJSCompatible bool
}

// PlayMode compiles and runs the story interactively.
func PlayMode() Mode { return Mode{Play: true} }

// ExportMode compiles the story to JSON.
func ExportMode(inkJSCompatible bool) Mode {
	return Mode{Export: true, InkJSCompatible: inkJSCompatible}
}

// StatsMode compiles the story for statistics. Stats never target ink.js.
func StatsMode() Mode { return Mode{Stats: true} }

// CompileInstruction is the payload of one compile request.
type CompileInstruction struct {
	MainName string `json:"mainName"`
	// UpdatedFiles maps relative path to source text, for files changed
	// since they were last sent.
	UpdatedFiles    map[string]string `json:"updatedFiles"`
	SessionID       string            `json:"sessionId"`
	Namespace       string            `json:"namespace"`
	Play            bool              `json:"play,omitempty"`
	Export          bool              `json:"export,omitempty"`
	Stats           bool              `json:"stats,omitempty"`
	InkJSCompatible bool              `json:"inkJsCompatible,omitempty"`

	// Project is the in-process project reference; never serialized.
	Project project.Project `json:"-"`

	taken []project.File
}

// BuildInstruction assembles the compile request for id.
//
// Every file is scanned in order. Files whose CompilerVersionDirty flag is
// set are included and have the flag cleared in the same step, so each edit
// is delivered to the compiler exactly once. Relative paths are NFC-normalized so a file
// name typed on one platform and read back decomposed on another maps to
// the same key.
func BuildInstruction(p project.Project, id session.ID, ns session.Namespace, mode Mode) CompileInstruction {
	instr := CompileInstruction{
		MainName:        p.MainFileName(),
		UpdatedFiles:    make(map[string]string),
		SessionID:       id.String(),
		Namespace:       string(ns),
		Play:            mode.Play,
		Export:          mode.Export,
		Stats:           mode.Stats,
		InkJSCompatible: mode.InkJSCompatible,
		Project:         p,
	}

	for _, f := range p.Files() {
		value, ok := f.TakeIfDirty()
		if !ok {
			continue
		}
		instr.UpdatedFiles[norm.NFC.String(f.RelativePath())] = value
		instr.taken = append(instr.taken, f)
	}

	return instr
}

// Undeliver marks every file the instruction carries dirty again. Call it
// when the instruction could not be sent, so the next compile resends them.
func (instr CompileInstruction) Undeliver() {
	for _, f := range instr.taken {
		f.MarkCompilerVersionDirty()
	}
}
