// Package oteladapters bridges the liber metrics interfaces to the OpenTelemetry metrics API.
//
// Pass a collector created from an OpenTelemetry meter to postgresengine.WithMetrics,
// observable.WithCommandMetrics, observable.WithQueryMetrics or shell.WithMetrics.
package oteladapters
