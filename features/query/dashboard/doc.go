// Package dashboard implements the Dashboard query: headline numbers over the whole library.
package dashboard
