// Package workspace manages a project's working area: the generated site
// folder, which every run clears, and the output folder, which runs only add
// to. A file lock keeps two runs from sharing one working area.
package workspace
