// Package daemon coordinates the long-running safora host process.
//
// It wires configuration, the host store, the capability gate, the notice
// board, the messaging sender, and the background presence manager behind a
// single invocation dispatcher, with flock-based locking to prevent multiple
// instances. Start binds the messaging and system-presence channels, resumes
// any presence interrupted by a previous run, and launches the optional HTTP
// API; Stop unbinds the channels and releases the lock.
//
// Keep orchestration logic here: channel behaviour lives in the messaging and
// presence packages while the daemon focuses on startup, shutdown, and the
// queries the IPC and HTTP surfaces expose.
package daemon
