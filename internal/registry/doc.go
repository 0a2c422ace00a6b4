// Package registry maps the task kinds named in pipeline definitions to the
// Go factories that build them.
//
// Modules register their kinds on an explicit Registry instance during
// startup. The registry then turns every config.Task of a loaded model into a
// pipeline.Task, decoding and validating the task's arguments on the way.
// There is no package-level registry; each App owns its own.
package registry
