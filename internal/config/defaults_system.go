package config

// GetDefaultSystemPrompt returns the system message sent with every request.
// It only steers the output format; the content instructions live in the
// per-phase templates.
func GetDefaultSystemPrompt() string {
	return `You are a senior developer-relations engineer writing training data for a coding assistant. Answers must be accurate, specific to the material provided, and include code where it helps. Respond with a JSON array only, no commentary before or after it.`
}
