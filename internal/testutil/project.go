package testutil

import "github.com/roach88/inklive/internal/project"

// NewWorkspace creates a ready workspace with mainFile as its main file.
// Every file in files starts dirty.
func NewWorkspace(mainFile string, files map[string]string) *project.Workspace {
	ws := project.NewWorkspace(mainFile)
	for rel, content := range files {
		ws.SetValue(rel, content)
	}
	ws.SetReady(true)
	return ws
}
