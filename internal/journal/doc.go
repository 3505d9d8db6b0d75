// Package journal stores durable log records in a SQLite database.
//
// The Handler is a log/slog handler; combined with logging.NewRouter it keeps
// every record tagged persist=true (link loss, reconnects, trip speed, loop
// termination) in the journal while the console keeps everything.
package journal
