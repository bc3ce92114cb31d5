package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletion(t *testing.T) {
	tests := []struct {
		name     string
		record   PreferenceRecord
		filled   int
		complete bool
	}{
		{"empty", PreferenceRecord{}, 0, false},
		{"category and brand are not tracked", PreferenceRecord{Category: "laptop", BrandPreference: "Acer", ScreenSize: ScreenLarge}, 0, false},
		{"defaults only", PreferenceRecord{Category: "laptop", PerformanceNeeds: PerformanceMedium}, 1, false},
		{"three of six", PreferenceRecord{Budget: Float(900), Purpose: PurposeGaming, PerformanceNeeds: PerformanceHigh}, 3, false},
		{"four of six", PreferenceRecord{Budget: Float(1000), Purpose: PurposeGaming, MemorySize: Int(16), PerformanceNeeds: PerformanceHigh}, 4, true},
		{"zero budget counts as filled", PreferenceRecord{Budget: Float(0), MemorySize: Int(0), StorageSize: Int(0), Purpose: PurposeGeneral}, 4, true},
		{
			"all tracked",
			PreferenceRecord{
				Budget: Float(1), Purpose: PurposeBusiness, MemorySize: Int(8), StorageSize: Int(256),
				DesiredProperties: []Property{PropertyThin}, PerformanceNeeds: PerformanceBasic,
			},
			6, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.filled, FilledSlots(tt.record))
			assert.InDelta(t, float64(tt.filled)/TrackedSlots, CompletionRatio(tt.record), 1e-9)
			assert.Equal(t, tt.complete, IsComplete(tt.record))
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := PreferenceRecord{Budget: Float(100), MemorySize: Int(8), DesiredProperties: []Property{PropertyFast}}
	c := r.Clone()

	*c.Budget = 200
	*c.MemorySize = 16
	c.DesiredProperties[0] = PropertyThin

	assert.Equal(t, 100.0, *r.Budget)
	assert.Equal(t, 8, *r.MemorySize)
	assert.Equal(t, []Property{PropertyFast}, r.DesiredProperties)
}

func TestAddProperty(t *testing.T) {
	var r PreferenceRecord
	assert.True(t, r.AddProperty(PropertyLight))
	assert.False(t, r.AddProperty(PropertyLight))
	assert.True(t, r.HasProperty(PropertyLight))
	assert.Equal(t, []Property{PropertyLight}, r.DesiredProperties)
}
