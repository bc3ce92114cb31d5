package pkg

import (
	"slices"
)

// Slot vocabularies shared by the extractors and the matcher

// Purpose is the primary use case a customer shops for
type Purpose string

const (
	PurposeGaming      Purpose = "gaming"
	PurposeEducation   Purpose = "education"
	PurposeBusiness    Purpose = "business"
	PurposeCreative    Purpose = "creative"
	PurposeProgramming Purpose = "programming"
	PurposeGeneral     Purpose = "general"
)

// Property is a desired physical or performance trait
type Property string

const (
	PropertyThin     Property = "thin"
	PropertyLight    Property = "light"
	PropertyFast     Property = "fast"
	PropertyDurable  Property = "durable"
	PropertyPowerful Property = "powerful"
)

// Upgradability names the components a customer wants to upgrade later
type Upgradability string

const (
	UpgradeRAM     Upgradability = "ram"
	UpgradeStorage Upgradability = "storage"
	UpgradeBoth    Upgradability = "both"
	UpgradeNone    Upgradability = "none"
)

// ScreenSize buckets, see services.ProductMatcher for the inch ranges
type ScreenSize string

const (
	ScreenSmall  ScreenSize = "small"
	ScreenMedium ScreenSize = "medium"
	ScreenLarge  ScreenSize = "large"
)

// WeightClass buckets, see services.ProductMatcher for the kg ranges
type WeightClass string

const (
	WeightLight  WeightClass = "light"
	WeightMedium WeightClass = "medium"
	WeightHeavy  WeightClass = "heavy"
)

// PerformanceLevel is the inferred performance tier
type PerformanceLevel string

const (
	PerformanceBasic  PerformanceLevel = "basic"
	PerformanceMedium PerformanceLevel = "medium"
	PerformanceHigh   PerformanceLevel = "high"
)

// DefaultCategory is assigned to a record on the first extraction pass
const DefaultCategory = "laptop"

var (
	Purposes          = []Purpose{PurposeGaming, PurposeEducation, PurposeBusiness, PurposeCreative, PurposeProgramming, PurposeGeneral}
	Properties        = []Property{PropertyThin, PropertyLight, PropertyFast, PropertyDurable, PropertyPowerful}
	Upgradabilities   = []Upgradability{UpgradeRAM, UpgradeStorage, UpgradeBoth, UpgradeNone}
	ScreenSizes       = []ScreenSize{ScreenSmall, ScreenMedium, ScreenLarge}
	WeightClasses     = []WeightClass{WeightLight, WeightMedium, WeightHeavy}
	PerformanceLevels = []PerformanceLevel{PerformanceBasic, PerformanceMedium, PerformanceHigh}
)

// ----------------------------------------------------
// ================ Preference record ================

// PreferenceRecord is the slot-filling memory of one conversation.
// Zero values (nil pointers, empty strings, empty slice) mean the slot is unset.
type PreferenceRecord struct {
	Budget            *float64         `json:"budget"`
	MemorySize        *int             `json:"ram"`
	StorageSize       *int             `json:"storage"`
	Purpose           Purpose          `json:"purpose,omitempty"`
	DesiredProperties []Property       `json:"properties"`
	Upgradability     Upgradability    `json:"upgradability,omitempty"`
	Category          string           `json:"category,omitempty"`
	BrandPreference   string           `json:"brand_preference,omitempty"`
	ScreenSize        ScreenSize       `json:"screen_size,omitempty"`
	WeightPreference  WeightClass      `json:"weight_preference,omitempty"`
	PerformanceNeeds  PerformanceLevel `json:"performance_needs,omitempty"`
}

// Clone returns a deep copy so extractors never mutate their input
func (r PreferenceRecord) Clone() PreferenceRecord {
	out := r
	if r.Budget != nil {
		v := *r.Budget
		out.Budget = &v
	}
	if r.MemorySize != nil {
		v := *r.MemorySize
		out.MemorySize = &v
	}
	if r.StorageSize != nil {
		v := *r.StorageSize
		out.StorageSize = &v
	}
	out.DesiredProperties = slices.Clone(r.DesiredProperties)
	return out
}

// HasProperty reports whether the property tag is already recorded
func (r PreferenceRecord) HasProperty(p Property) bool {
	return slices.Contains(r.DesiredProperties, p)
}

// AddProperty appends p unless it is already present
func (r *PreferenceRecord) AddProperty(p Property) bool {
	if r.HasProperty(p) {
		return false
	}
	r.DesiredProperties = append(r.DesiredProperties, p)
	return true
}

// Float returns a pointer to v, handy for building records
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// ----------------------------------------------------
// ================ Catalog ================

// ProductRecord is one catalog item. Optional specs are nil when the catalog has no value.
type ProductRecord struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Category          string   `json:"category"`
	Price             float64  `json:"price"`
	MemorySize        *int     `json:"ram"`
	StorageSize       *int     `json:"storage"`
	Weight            *float64 `json:"weight"`
	ScreenSize        *float64 `json:"screen_size"`
	Processor         string   `json:"processor,omitempty"`
	Graphics          string   `json:"graphics,omitempty"`
	BatteryLife       *int     `json:"battery_life"`
	UseCase           string   `json:"use_case,omitempty"`
	UpgradableMemory  bool     `json:"upgradable_ram"`
	UpgradableStorage bool     `json:"upgradable_storage"`
	Description       string   `json:"description,omitempty"`
	Brand             string   `json:"brand,omitempty"`
	ImageURL          string   `json:"image_url,omitempty"`
}

// ----------------------------------------------------
// ================ Turn ================

// TurnResult is what one dialogue turn hands back to the transport layer
type TurnResult struct {
	Reply         string          `json:"reply"`
	NeedsMoreInfo bool            `json:"needs_more_info"`
	Matches       []ProductRecord `json:"recommended_products"`
}
