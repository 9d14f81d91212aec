package models

// Fixed failure reasons reported by the harvest orchestrator.
const (
	ReasonNoListings  = "No listings found on page"
	ReasonSinkFailure = "Failed to send to backend"
)

// HarvestResult is the tagged outcome of one harvest-and-submit cycle.
// Callers branch on Success; a failed harvest is a value, never a panic.
type HarvestResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Succeeded builds a success result acknowledging count records.
func Succeeded(count int) HarvestResult {
	return HarvestResult{Success: true, Count: count}
}

// Failed builds a failure result carrying reason.
func Failed(reason string) HarvestResult {
	return HarvestResult{Success: false, Error: reason}
}
