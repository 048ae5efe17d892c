// Package generation defines the boundary between the application core and
// the external text-generation collaborator, plus the per-content-type
// instruction templates used to steer it. The core never talks to a model
// SDK directly; it depends on the Generator interface and lets a platform
// implementation (internal/platform/gemini) satisfy it.
package generation
