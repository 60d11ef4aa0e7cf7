// Package logging provides a structured logging system for execauth built on
// Go's standard slog package.
//
// All log entries carry a subsystem identifier so that output from the
// credential provider, the process invoker and the config loader can be
// filtered independently:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Bootstrap", "Application starting up")
//	logging.Debug("ConfigLoader", "Loaded configuration from %s", configPath)
//	logging.Error("Invoker", err, "Plugin %s failed", command)
//
// Because execauth emits credentials on stdout, logs always go to a caller
// supplied writer (normally stderr) so they never mix with the credential
// payload.
//
// The logging system is safe for concurrent use from multiple goroutines.
package logging
