// Package file provides the TOML-backed configuration store.
//
// Values are read from a TOML file, flattened into dot-notation keys and may
// be overridden by ZMG_* environment variables. A Watcher reloads the store
// when the file changes on disk.
package file
