package nodes

import (
	"fmt"
	"strings"

	"product_advisor/pkg"

	"github.com/bytedance/sonic"
)

func getExtractionSystemTemplate() string {
	return `You are an information extraction assistant for a laptop recommendation system.
Extract relevant information from the user's message and update the current memory state.

From the user's message, extract and update any of these fields:
- budget: numerical value in dollars (e.g., 1000, 1500)
- ram: RAM amount in GB (e.g., 8, 16, 32)
- storage: storage in GB (e.g., 256, 512, 1000)
- purpose: use case (education, gaming, business, creative, programming, general)
- properties: list of desired properties (thin, light, fast, durable, powerful)
- upgradability: what they want to upgrade (ram, storage, both, none)
- category: product category (laptop, smartphone, tablet)
- brand_preference: preferred brand if mentioned
- screen_size: size preference (small=13 inch or less, medium=14-15 inch, large=16+ inch)
- weight_preference: weight preference (light=under 1.5kg, medium=1.5-2.5kg, heavy=over 2.5kg)
- performance_needs: performance level (basic, medium, high)

Return ONLY a JSON object whose keys are a subset of the fields above. Use null for anything not mentioned.
Do not include any explanations, just the JSON.`
}

func getRecommendationSystemTemplate() string {
	return `You are a friendly and knowledgeable product recommendation assistant.
The user has provided enough information and you are given the products recommended for their preferences.

Generate a natural, conversational response that:
1. Acknowledges their preferences
2. Presents the recommended products in a friendly way
3. Highlights why each product matches their needs
4. Asks if they need more information about any product

Keep the response conversational and helpful, not robotic.`
}

func getGatheringSystemTemplate() string {
	return `You are a friendly and knowledgeable product recommendation assistant.
The user is looking for product recommendations but you need more information.

Generate a natural, conversational response that:
1. Acknowledges what they've told you so far
2. Asks for one or two specific pieces of missing information
3. Explains why this information is helpful
4. Keeps the conversation flowing naturally

Missing important information to ask about:
- Budget (if not provided)
- Purpose/use case (if not provided)
- Performance needs (if not provided)
- RAM requirements (if not provided)
- Storage needs (if not provided)
- Any specific properties they care about (if not provided)

Be friendly and conversational, not like a form to fill out.`
}

// extractionPrompt returns the system and user prompts for slot extraction
func extractionPrompt(record pkg.PreferenceRecord, utterance string) (string, string, error) {
	memory, err := sonic.MarshalString(record)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode memory state: %w", err)
	}

	var user strings.Builder
	user.WriteString("Current memory state: ")
	user.WriteString(memory)
	user.WriteString("\n\nUser message: \"")
	user.WriteString(utterance)
	user.WriteString("\"")

	return getExtractionSystemTemplate(), user.String(), nil
}

// responsePrompt returns the prompts for the reply; matches selects the recommending variant
func responsePrompt(record pkg.PreferenceRecord, utterance string, matches []pkg.ProductRecord) (string, string, error) {
	memory, err := sonic.MarshalString(record)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode memory state: %w", err)
	}

	var user strings.Builder
	system := getGatheringSystemTemplate()

	if len(matches) > 0 {
		products, err := sonic.MarshalString(matches)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode products: %w", err)
		}
		system = getRecommendationSystemTemplate()
		fmt.Fprintf(&user, "User preferences: %s\nRecommended products: %s\n", memory, products)
	} else {
		fmt.Fprintf(&user, "Current information gathered: %s\nCompletion: %.0f%%\n", memory, pkg.CompletionRatio(record)*100)
	}

	fmt.Fprintf(&user, "\nUser message: %q", utterance)
	return system, user.String(), nil
}
