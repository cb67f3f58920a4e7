package model

// QueryOptions carries the per-request toggles and limits the
// orchestrator's Answer operation accepts, mirroring the POST /query
// request body.
type QueryOptions struct {
	MaxResults        int  `json:"max_results,omitempty"`
	UseMemory         bool `json:"use_memory"`
	UseAmplification  bool `json:"use_amplification"`
	UseSmartSelection bool `json:"use_smart_selection"`
	UseVerification   bool `json:"use_verification"`
}

// DefaultQueryOptions matches the documented request defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		MaxResults:        5,
		UseMemory:         true,
		UseAmplification:  true,
		UseSmartSelection: true,
		UseVerification:   true,
	}
}
