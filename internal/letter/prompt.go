package letter

import (
	"fmt"
	"strings"
)

// PromptTemplate is the fixed instruction wrapped around the user's description.
const PromptTemplate = "Generate a romantic and heartfelt love letter (between 100-500 words) based on this context: %s. " +
	"The letter should be genuine, emotional, and personal, expressing deep feelings of love and affection. " +
	"Make it poetic and touching while maintaining authenticity. Avoid clichés and generic expressions."

// BuildPrompt embeds the trimmed description into PromptTemplate.
func BuildPrompt(description string) string {
	return fmt.Sprintf(PromptTemplate, strings.TrimSpace(description))
}
