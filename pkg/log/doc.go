/*
Package log provides structured logging for whoisd using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level for production debugging.

# Usage

Initialize once at process start, then derive child loggers per component:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("server")
	logger.Info().Str("addr", ":43").Msg("listening")

Connection handlers attach a connection ID so one query's lifecycle can be
traced across components:

	logger := log.WithConnID(connID)
	logger.Debug().Str("query", q.Raw).Msg("classified query")

JSON output is intended for journald or file collection; console output is
human-readable for interactive use.
*/
package log
