package nodes

import (
	"fmt"
	"strconv"
	"strings"

	"product_advisor/pkg"
)

const (
	greetingLowCompletion = "Thanks for reaching out! I'd love to help you find the perfect laptop."
	greetingProgress      = "Great! I'm getting a better understanding of what you need."
	enoughInformation     = "I think I have enough information to find some options for you!"
	followUpOffer         = "\n\nWould you like more details about any of these laptops?"

	askBudget      = "What's your budget range?"
	askPurpose     = "What will you primarily use it for? (gaming, school, work, etc.)"
	askPerformance = "Do you need high performance or is basic performance fine?"
	askProperties  = "Any preferences for portability, weight, or design?"

	// lowCompletion switches the opening line of a gathering reply
	lowCompletion = 0.3
	maxQuestions  = 2
)

// recommendationReply lists the matches one per line after a count sentence
func recommendationReply(matches []pkg.ProductRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Great! Based on your preferences, I found %d laptop(s) that match your needs:\n\n", len(matches))

	for i, product := range matches {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "✅ **%s** - $%.2f", product.Name, product.Price)
		if product.MemorySize != nil && *product.MemorySize != 0 {
			fmt.Fprintf(&b, " | %dGB RAM", *product.MemorySize)
		}
		if product.StorageSize != nil && *product.StorageSize != 0 {
			fmt.Fprintf(&b, " | %dGB Storage", *product.StorageSize)
		}
		if product.Weight != nil && *product.Weight != 0 {
			fmt.Fprintf(&b, " | %skg", formatWeight(*product.Weight))
		}
	}

	b.WriteString(followUpOffer)
	return b.String()
}

// pendingQuestions picks clarifying questions in priority order
func pendingQuestions(record pkg.PreferenceRecord) []string {
	var questions []string
	if record.Budget == nil {
		questions = append(questions, askBudget)
	}
	if record.Purpose == "" {
		questions = append(questions, askPurpose)
	}
	if record.PerformanceNeeds == "" && len(questions) == 0 {
		questions = append(questions, askPerformance)
	}
	if len(record.DesiredProperties) == 0 && len(questions) < maxQuestions {
		questions = append(questions, askProperties)
	}
	return questions
}

// gatheringReply opens according to completion and asks at most two questions
func gatheringReply(record pkg.PreferenceRecord) string {
	parts := []string{greetingProgress}
	if pkg.CompletionRatio(record) < lowCompletion {
		parts[0] = greetingLowCompletion
	}

	questions := pendingQuestions(record)
	switch len(questions) {
	case 0:
		parts = append(parts, enoughInformation)
	case 1:
		parts = append(parts, questions[0])
	default:
		parts = append(parts, "A few quick questions:")
		for i, q := range questions[:maxQuestions] {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, q))
		}
	}

	return strings.Join(parts, " ")
}

// formatWeight prints the shortest form of w, keeping one decimal for whole numbers
func formatWeight(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
