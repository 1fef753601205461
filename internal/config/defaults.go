package config

// Template data available to every prompt:
//
//	.NumPairs  number of pairs requested
//	.Subject   generation.subject
//	.Language  generation.language
//
// Per-unit templates also get .Content (the chunk or file text). The code
// template gets .FileName and .Symbols (comma-separated declarations, may be
// empty). Aggregate templates get .Context and the code generation template
// gets .ImportHint.

// GetDefaultDocumentationQATemplate returns the prompt used for each documentation chunk
func GetDefaultDocumentationQATemplate() string {
	return `Based on this documentation:
{{.Content}}

Generate {{.NumPairs}} different user questions and answers in JSON format.
Each should be a realistic question a developer would ask.
Include questions about:
- How to use specific features
- What certain components do
- Why certain design decisions were made
- When to use different approaches

Format: [{"question": "...", "answer": "..."}]

Make sure the response is valid JSON and each question-answer pair is realistic and helpful.`
}

// GetDefaultCodeQATemplate returns the prompt used for each code example file
func GetDefaultCodeQATemplate() string {
	return `Based on this {{.Language}} code example ({{.FileName}}):
{{.Content}}
{{if .Symbols}}
It declares: {{.Symbols}}
{{end}}
Generate {{.NumPairs}} different user questions and answers in JSON format.
Include questions about:
- How to implement this pattern
- What each part of the code does
- How to customize or extend this example
- Common issues and troubleshooting
- Best practices demonstrated

Format: [{"question": "...", "answer": "..."}]

Make sure the response is valid JSON and each question-answer pair is realistic and helpful.
Focus on practical implementation questions that developers would ask.`
}

// GetDefaultIntegrationTemplate returns the run-once integration and troubleshooting prompt
func GetDefaultIntegrationTemplate() string {
	return `Based on this {{.Subject}} documentation and code examples:
{{.Context}}

Generate {{.NumPairs}} integration and troubleshooting questions and answers in JSON format.
Include questions about:
- How to integrate with different frameworks (Next.js, React, Vite)
- How to handle common errors and debugging
- How to customize themes and styling
- How to implement specific use cases
- Performance optimization tips

Format: [{"question": "...", "answer": "..."}]

Make sure the response is valid JSON and each question-answer pair is realistic and helpful.`
}

// GetDefaultCodeGenerationTemplate returns the run-once instruction/implementation prompt
func GetDefaultCodeGenerationTemplate() string {
	return `Based on this {{.Subject}} documentation and code examples:
{{.Context}}

Generate {{.NumPairs}} code generation instruction-following examples in JSON format.
Each should include an instruction and the expected code implementation.

Include different types of requests:
- Create a basic voice chat component
- Implement a custom theme
- Add error handling to a component
- Create a new template
- Integrate with a specific framework
- Add custom styling
- Implement specific functionality
- Create a complete example app

Format: [
    {
        "instruction": "Create a voice chat component that...",
        "implementation": "` + "```" + `tsx\nimport { ... } from '{{.ImportHint}}';\n\nexport function VoiceChat() {...}\n` + "```" + `"
    }
]

Make sure the response is valid JSON and each implementation includes proper imports and complete, working {{.Language}} code.`
}
