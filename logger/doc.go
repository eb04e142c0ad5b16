// Package logger provides structured logging for fnkit built on zerolog.
//
// The engine logs only diagnostics: dispatch decisions, native-path
// fallbacks, and Debug/Trace tap output. Libraries embedding fnkit can
// inject their own logger via pipe.WithLogger, or configure the global one:
//
//	logger.Init(logger.Config{Level: "debug", Format: "console"})
//
// Component loggers tag every event with the originating package:
//
//	log := logger.Get("backend")
//	log.Debug("dispatching", logger.Fields("backend", "native", "size", n))
package logger
