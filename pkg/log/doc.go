// Package log provides the structured logging facade used across logship.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context, backed by a pluggable
// formatter/output pipeline.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("uploader"))
//	l.Info("batch sent", log.Int("entries", 50))
//
// Library code that receives no logger should fall back to NewNop rather
// than writing to a global.
package log
