package nodes

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"product_advisor/pkg"

	"github.com/bytedance/sonic"
)

// slotMergers apply one decoded JSON field to a record. Unknown keys are ignored.
var slotMergers = map[string]func(*pkg.PreferenceRecord, any){
	"budget": func(r *pkg.PreferenceRecord, v any) {
		if n, ok := numberValue(v); ok && r.Budget == nil {
			r.Budget = &n
		}
	},
	"ram": func(r *pkg.PreferenceRecord, v any) {
		if n, ok := numberValue(v); ok && r.MemorySize == nil {
			size := int(math.Round(n))
			r.MemorySize = &size
		}
	},
	"storage": func(r *pkg.PreferenceRecord, v any) {
		if n, ok := numberValue(v); ok && r.StorageSize == nil {
			size := int(math.Round(n))
			r.StorageSize = &size
		}
	},
	"purpose": func(r *pkg.PreferenceRecord, v any) {
		if p, ok := vocabularyValue(v, pkg.Purposes); ok && r.Purpose == "" {
			r.Purpose = p
		}
	},
	"properties": func(r *pkg.PreferenceRecord, v any) {
		items, ok := v.([]any)
		if !ok {
			items = []any{v}
		}
		for _, item := range items {
			if p, ok := vocabularyValue(item, pkg.Properties); ok {
				r.AddProperty(p)
			}
		}
	},
	"upgradability": func(r *pkg.PreferenceRecord, v any) {
		if u, ok := vocabularyValue(v, pkg.Upgradabilities); ok && r.Upgradability == "" {
			r.Upgradability = u
		}
	},
	"category": func(r *pkg.PreferenceRecord, v any) {
		if s, ok := stringValue(v); ok && r.Category == "" {
			r.Category = s
		}
	},
	"brand_preference": func(r *pkg.PreferenceRecord, v any) {
		if s, ok := stringValue(v); ok && r.BrandPreference == "" {
			r.BrandPreference = s
		}
	},
	"screen_size": func(r *pkg.PreferenceRecord, v any) {
		if s, ok := vocabularyValue(v, pkg.ScreenSizes); ok && r.ScreenSize == "" {
			r.ScreenSize = s
		}
	},
	"weight_preference": func(r *pkg.PreferenceRecord, v any) {
		if w, ok := vocabularyValue(v, pkg.WeightClasses); ok && r.WeightPreference == "" {
			r.WeightPreference = w
		}
	},
	"performance_needs": func(r *pkg.PreferenceRecord, v any) {
		if p, ok := vocabularyValue(v, pkg.PerformanceLevels); ok && r.PerformanceNeeds == "" {
			r.PerformanceNeeds = p
		}
	},
}

// MergeJSON decodes a model reply and merges it into a copy of record.
// Set scalar slots are never overwritten; properties are added.
func MergeJSON(record pkg.PreferenceRecord, payload string) (pkg.PreferenceRecord, error) {
	body, err := stripCodeFence(payload)
	if err != nil {
		return record, err
	}

	var fields map[string]any
	if err := sonic.UnmarshalString(body, &fields); err != nil {
		return record, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	updated := record.Clone()
	for key, value := range fields {
		merge, ok := slotMergers[strings.ToLower(key)]
		if !ok || value == nil {
			continue
		}
		merge(&updated, value)
	}
	return updated, nil
}

// stripCodeFence removes markdown fences and any text around the JSON object
func stripCodeFence(payload string) (string, error) {
	text := strings.TrimSpace(payload)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrMalformedOutput)
	}
	return text[start : end+1], nil
}

func numberValue(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(t), "$"), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	return s, true
}

func vocabularyValue[T ~string](v any, allowed []T) (T, bool) {
	s, ok := stringValue(v)
	if !ok {
		return "", false
	}
	candidate := T(strings.ToLower(s))
	if !slices.Contains(allowed, candidate) {
		return "", false
	}
	return candidate, true
}
