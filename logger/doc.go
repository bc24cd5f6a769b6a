// Package logger provides structured logging for tabletool using zerolog.
//
// Logs go to stderr by default because stdout usually carries the output
// table. Every pipeline run derives a component logger tagged with the run
// id, and operators derive their own loggers from it.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.New(&cfg, "tabletool").WithComponent("tj")
//	log.Warn("ragged row", logger.Fields("line", 12))
package logger
