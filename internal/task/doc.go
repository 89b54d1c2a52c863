// Package task models the inputs the learning core reasons about.
//
// Payloads arrive as arbitrary JSON; Value is a tagged union over the
// shapes the core distinguishes (text, array, object, number, bool, null)
// with explicit per-variant handling instead of reflection-driven dispatch.
// On top of Value the package derives stable task signatures, a three-axis
// complexity score, and the static task-type capability mapping used by
// strategy selection.
package task
