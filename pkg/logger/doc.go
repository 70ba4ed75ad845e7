// Package logger provides the structured logging interface used across ninlil.
//
// It wraps zerolog with a small interface so components can carry fields
// (blog, post_id, job) without depending on zerolog directly.
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//
//	log := logger.GetLogger().WithField("blog", "staff")
//	log.InfoWithFields("Archive written", map[string]interface{}{
//	    "entries": 12,
//	    "path":    "/tmp/ninlil-123/photos_2024-01-01_2024-02-01.zip",
//	})
//
// Tests use NewTestLogger to capture messages, or NewNopLogger to discard them.
package logger
