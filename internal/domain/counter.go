package domain

import (
	"fmt"
	"time"
)

// CounterType names an independent readable ID sequence.
type CounterType string

const (
	CounterTypeWallet      CounterType = "WALLET"
	CounterTypeBooking     CounterType = "BOOKING"
	CounterTypeTransaction CounterType = "TRANSACTION"
	CounterTypeDispute     CounterType = "DISPUTE"
)

var counterPrefixes = map[CounterType]string{
	CounterTypeWallet:      "WAL",
	CounterTypeBooking:     "BK",
	CounterTypeTransaction: "TXN",
	CounterTypeDispute:     "DSP",
}

// IsValid reports whether t is a known counter.
func (t CounterType) IsValid() bool {
	_, ok := counterPrefixes[t]
	return ok
}

// Monthly reports whether the sequence restarts every month.
func (t CounterType) Monthly() bool {
	return t != CounterTypeWallet
}

// CounterPeriod returns the period key for t at the given instant.
// Monthly sequences use YYMM in UTC, the wallet sequence never resets.
func CounterPeriod(t CounterType, at time.Time) string {
	if !t.Monthly() {
		return "GLOBAL"
	}
	return at.UTC().Format("0601")
}

// FormatReadableID renders a counter value as a human readable identifier,
// e.g. WAL-000042 or BK-2410-0007.
func FormatReadableID(t CounterType, period string, value int64) string {
	prefix := counterPrefixes[t]
	if !t.Monthly() {
		return fmt.Sprintf("%s-%06d", prefix, value)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, period, value)
}
