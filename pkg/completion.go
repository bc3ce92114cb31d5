package pkg

// TrackedSlots is the number of slots that count toward completion
const TrackedSlots = 6

// CompletionThreshold is the ratio at which the dialogue starts recommending
const CompletionThreshold = 0.6

// FilledSlots counts tracked slots that hold a value: budget, purpose,
// memory size, storage size, a non-empty property set and performance needs.
func FilledSlots(r PreferenceRecord) int {
	filled := 0
	if r.Budget != nil {
		filled++
	}
	if r.Purpose != "" {
		filled++
	}
	if r.MemorySize != nil {
		filled++
	}
	if r.StorageSize != nil {
		filled++
	}
	if len(r.DesiredProperties) > 0 {
		filled++
	}
	if r.PerformanceNeeds != "" {
		filled++
	}
	return filled
}

// CompletionRatio is FilledSlots over TrackedSlots
func CompletionRatio(r PreferenceRecord) float64 {
	return float64(FilledSlots(r)) / TrackedSlots
}

// IsComplete reports whether enough is known to search the catalog
func IsComplete(r PreferenceRecord) bool {
	return CompletionRatio(r) >= CompletionThreshold
}
