package nodes

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"product_advisor/pkg"
)

// keywordRule maps a slot value to the keywords that signal it.
// Tables are ordered slices; the first matching entry wins.
type keywordRule[T any] struct {
	value    T
	keywords []string
}

var budgetPatterns = compileAll(
	`under\s+\$?(\d+)`,
	`less\s+than\s+\$?(\d+)`,
	`\$(\d+)\s+budget`,
	`budget\s+of\s+\$?(\d+)`,
	`\$(\d+)`,
)

var memoryPatterns = compileAll(
	`(\d+)\s*gb\s+ram`,
	`(\d+)\s*gb\s+memory`,
	`ram.*?(\d+)\s*gb`,
	`memory.*?(\d+)\s*gb`,
)

var storagePatterns = compileAll(
	`(\d+)\s*gb\s+storage`,
	`(\d+)\s*gb\s+ssd`,
	`storage.*?(\d+)\s*gb`,
	`ssd.*?(\d+)\s*gb`,
)

var purposeKeywords = []keywordRule[pkg.Purpose]{
	{pkg.PurposeGaming, []string{"gaming", "games", "game", "gamer"}},
	{pkg.PurposeEducation, []string{"school", "college", "student", "study", "education", "university", "academic"}},
	{pkg.PurposeBusiness, []string{"work", "office", "business", "professional", "corporate"}},
	{pkg.PurposeCreative, []string{"design", "creative", "art", "photo", "video", "editing"}},
	{pkg.PurposeProgramming, []string{"programming", "coding", "development", "software", "developer"}},
}

var propertyKeywords = []keywordRule[pkg.Property]{
	{pkg.PropertyThin, []string{"thin", "slim", "sleek"}},
	{pkg.PropertyLight, []string{"light", "lightweight", "portable"}},
	{pkg.PropertyFast, []string{"fast", "quick", "speedy", "high-performance"}},
	{pkg.PropertyDurable, []string{"durable", "sturdy", "robust", "tough"}},
	{pkg.PropertyPowerful, []string{"powerful", "high-end", "performance"}},
}

var (
	highPerformanceKeywords  = []string{"gaming", "creative", "video", "high-performance"}
	basicPerformanceKeywords = []string{"basic", "simple", "email", "web"}
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// PatternExtractor is the deterministic keyword and regex backend
type PatternExtractor struct {
	defaultCategory string
}

// NewPatternExtractor creates the rule-based backend; an empty category uses pkg.DefaultCategory
func NewPatternExtractor(defaultCategory string) *PatternExtractor {
	if defaultCategory == "" {
		defaultCategory = pkg.DefaultCategory
	}
	return &PatternExtractor{defaultCategory: defaultCategory}
}

// GetName returns the backend name
func (p *PatternExtractor) GetName() string {
	return "pattern"
}

// Extract fills unset slots from the utterance. Scalar slots keep their first
// value; properties accumulate on every turn.
func (p *PatternExtractor) Extract(_ context.Context, utterance string, record pkg.PreferenceRecord) (pkg.PreferenceRecord, error) {
	text := strings.ToLower(utterance)
	updated := record.Clone()

	if updated.Budget == nil {
		if m, ok := firstMatch(budgetPatterns, text); ok {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				updated.Budget = &v
			}
		}
	}

	if updated.Purpose == "" {
		if purpose, ok := firstRule(purposeKeywords, text); ok {
			updated.Purpose = purpose
		}
	}

	for _, rule := range propertyKeywords {
		if containsAny(text, rule.keywords) {
			updated.AddProperty(rule.value)
		}
	}

	if updated.MemorySize == nil {
		if n, ok := firstInt(memoryPatterns, text); ok {
			updated.MemorySize = &n
		}
	}

	if updated.StorageSize == nil {
		if n, ok := firstInt(storagePatterns, text); ok {
			updated.StorageSize = &n
		}
	}

	if updated.Upgradability == "" && strings.Contains(text, "upgrade") {
		switch {
		case strings.Contains(text, "ram"):
			updated.Upgradability = pkg.UpgradeRAM
		case strings.Contains(text, "storage"):
			updated.Upgradability = pkg.UpgradeStorage
		default:
			updated.Upgradability = pkg.UpgradeBoth
		}
	}

	if updated.Category == "" {
		updated.Category = p.defaultCategory
	}

	if updated.PerformanceNeeds == "" {
		updated.PerformanceNeeds = inferPerformance(text)
	}

	return updated, nil
}

// Respond renders the template reply, see response.go
func (p *PatternExtractor) Respond(_ context.Context, _ string, record pkg.PreferenceRecord, matches []pkg.ProductRecord) (string, error) {
	if len(matches) > 0 {
		return recommendationReply(matches), nil
	}
	return gatheringReply(record), nil
}

func inferPerformance(text string) pkg.PerformanceLevel {
	switch {
	case containsAny(text, highPerformanceKeywords):
		return pkg.PerformanceHigh
	case containsAny(text, basicPerformanceKeywords):
		return pkg.PerformanceBasic
	default:
		return pkg.PerformanceMedium
	}
}

// firstMatch tries patterns in order and returns the first captured group
func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func firstInt(patterns []*regexp.Regexp, text string) (int, bool) {
	m, ok := firstMatch(patterns, text)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstRule[T any](rules []keywordRule[T], text string) (T, bool) {
	for _, rule := range rules {
		if containsAny(text, rule.keywords) {
			return rule.value, true
		}
	}
	var zero T
	return zero, false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
