// Package logs tails the daemon's log files for the CLI.
//
// It reads the last N lines with bounded memory, follows a file from a byte
// offset, and filters JSON log records by component, channel, correlation id,
// and minimum level. The daemon keeps safora.log pointed at the current run's
// file; CurrentPath resolves it.
package logs
