// Package logger provides structured logging for cachekit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("provider")
//	log.Info("provider selected", logger.Fields("provider", "heap", "rank", 1))
package logger
