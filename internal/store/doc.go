// Package store persists host state in a local SQLite database.
//
// It records the last known state of each capability, the authorization
// requests issued for them, the notice channels and active notices that make
// up the notice board, and the presence manager's lifecycle state so a
// restarted daemon can resume where it left off. The database runs in WAL mode
// with a busy timeout, and writes retry briefly when SQLite reports the
// database as locked.
package store
