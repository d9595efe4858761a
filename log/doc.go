// Package log provides a small leveled logging interface for agentflow.
//
// The graph model, the editor and the HTTP server all accept a Logger and fall
// back to the package-level default logger when none is supplied.
//
// # Log Levels
//
//   - LogLevelDebug: editor state transitions, placement and layout decisions
//   - LogLevelInfo: user-visible outcomes such as a rejected connection
//   - LogLevelWarn: recoverable problems, for example entities skipped on import
//   - LogLevelError: failures at I/O boundaries
//   - LogLevelNone: disables all logging output
//
// # Example Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("session %s created", id)
//
//	level, err := log.ParseLevel(cfg.Log.Level)
//	if err != nil {
//		return err
//	}
//	log.SetLogLevel(level)
//
// # golog Integration
//
// For users who prefer github.com/kataras/golog there is a thin wrapper:
//
//	glogger := golog.New()
//	glogger.SetPrefix("[agentflow] ")
//
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//	log.SetDefaultLogger(logger)
//
// # Thread Safety
//
// DefaultLogger delegates to the standard library log.Logger, which is safe for
// concurrent use. NoOpLogger discards everything.
package log
