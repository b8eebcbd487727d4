// Package license decodes the raw payload scraped from a completed checkout
// page into structured license records.
package license

// Record is one generated license granted to the purchaser. Name is the
// purchaser's display name and is shared across all records produced by one
// parse. SKU may be empty when the source payload carries no per-line SKU.
type Record struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Outcome is the result of parsing one payload. Completed is false while the
// checkout has not produced a finished order yet; that is not an error, just
// "nothing to report". A Completed outcome with an empty Records slice is a
// valid purchase result (nothing granted), distinct from not-completed.
type Outcome struct {
	Completed bool
	Records   []Record
}
