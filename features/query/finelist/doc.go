// Package finelist implements the Fine List query with the outstanding total of the listed fines.
package finelist
