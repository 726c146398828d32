package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Overview is a compact dashboard summary for an optional account scope
// and time range.
type Overview struct {
	TotalBalance Money
	TotalIn      Money
	TotalOut     Money
	ByCategory   []CategoryAmount
}

// DaySummary holds IN/OUT totals for a single day.
type DaySummary struct {
	Day      time.Time
	TotalIn  Money
	TotalOut Money
}
