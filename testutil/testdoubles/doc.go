// Package testdoubles provides spies for the logging and metrics interfaces used by the store and the handlers.
package testdoubles
