// Package logging wraps zerolog with this module's own conventions:
// level/format selection from internal/config.LoggingConfig, an
// optional rotating file sink via lumberjack, and a small set of
// default fields (component, version) attached to every record; With
// returns a Logger carrying further fields.
package logging
