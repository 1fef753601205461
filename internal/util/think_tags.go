package util

import (
	"regexp"
	"strings"
)

// Reasoning models served through OpenAI-compatible gateways often prefix the
// answer with their chain of thought wrapped in tags.
var (
	thinkTagRegex        = regexp.MustCompile(`(?i)<think(?:ing)?>([\s\S]*?)</think(?:ing)?>`)
	chineseThinkTagRegex = regexp.MustCompile(`<思考>([\s\S]*?)</思考>`)
)

// ContainsThinkTags reports whether the response carries a reasoning block
func ContainsThinkTags(response string) bool {
	return thinkTagRegex.MatchString(response) || chineseThinkTagRegex.MatchString(response)
}

// StripThinkTags removes reasoning blocks so only the final answer remains
func StripThinkTags(response string) string {
	result := thinkTagRegex.ReplaceAllString(response, "")
	result = chineseThinkTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}
