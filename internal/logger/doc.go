// Package logger builds the zap loggers used by the relay and the CLI.
//
// Console output goes to stderr so that it never mixes with chat lines on
// stdout. File output can be rotated with lumberjack.
package logger
