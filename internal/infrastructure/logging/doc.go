// Package logging builds the shell's root zap logger from the LOG_* settings.
//
// Production writes sampled JSON to the configured sinks; development writes
// colored console output. Every entry carries service=arcade-shell.
//
// Subsystems take a *zap.Logger named after themselves ("registry", "bus",
// "layout", "loader"). Plugins get a child logger carrying their id.
//
// Example Usage:
//
//	logger, err := logging.New(logging.FromSettings(cfg.Logging))
//	if err != nil {
//	    return err
//	}
//	registry := component.NewRegistry(logger.Logger)
package logging
