// Package payfine implements the Pay Fine use case. Paid is terminal; paying twice is rejected.
package payfine
