// Package project provides the project and file model consumed by the
// live compiler: which ink files exist, what they contain, and whether the
// compiler has seen their latest content.
package project

// Project is the view of an open project the live compiler needs.
type Project interface {
	// MainFileName is the file name of the root ink file, e.g. "main.ink".
	MainFileName() string
	// Files returns every ink file in a stable order.
	Files() []File
	// Ready reports whether the project has finished loading.
	Ready() bool
	// CountOpenFileLines counts lines in the file open in the editor.
	CountOpenFileLines() int
}

// File is one ink source file.
type File interface {
	// RelativePath is the path relative to the project root, slash separated.
	RelativePath() string
	// Value returns the current source text.
	Value() string
	// CompilerVersionDirty reports whether the text changed since the
	// compiler was last sent this file.
	CompilerVersionDirty() bool
	// ClearCompilerVersionDirty marks the current text as delivered.
	ClearCompilerVersionDirty()
	// TakeIfDirty returns the current text and clears the dirty flag in one
	// step. ok is false, and nothing changes, when the file is clean.
	TakeIfDirty() (value string, ok bool)
	// MarkCompilerVersionDirty flags the file for the next compile, e.g.
	// when a taken text never reached the compiler.
	MarkCompilerVersionDirty()
}
