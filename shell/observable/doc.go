// Package observable decorates command and query handlers with logging and metrics.
//
// The wrapped handlers stay free of infrastructure concerns; the wrappers translate their
// HandlerResult and errors into log records and metrics.
package observable
