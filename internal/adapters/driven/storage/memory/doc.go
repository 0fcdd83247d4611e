// Package memory provides in-memory implementations of the driven store ports.
// They are used in tests and by single-process deployments that do not need
// sessions to survive a restart.
package memory
