// Package logging provides a minimal, nil-safe structured logger used for
// diagnostic (never control-flow-affecting) output from the delta encoder
// and other components. It mirrors the Logger/Level shape used throughout
// the corpus this module was adapted from, but is deliberately side-effect
// free on import: callers that want log output must construct a root logger
// explicitly via NewRoot.
package logging
