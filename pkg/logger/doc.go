// Package logger provides a structured logging interface for igsource.
//
// It wraps zerolog with a small interface that every component accepts, so
// tests can swap in NewTestLogger or NewNopLogger:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("node_id", id).Info("Node created")
//
//	log := logger.GetLogger().WithField("component", "localizer")
//	log.InfoWithFields("Download completed", map[string]interface{}{
//	    "url":  url,
//	    "size": size,
//	})
//
// Console output goes to stderr so command output on stdout stays clean.
// When logging.file is set, events are also appended to that file.
package logger
