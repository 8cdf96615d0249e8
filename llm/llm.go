package llm

// Client abstracts a vision-capable LLM provider used by the analyzer.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// AnalyzeImage sends the prompt plus one base64-encoded image to the
	// provider and returns the raw text completion.
	AnalyzeImage(prompt, imageBase64, imageFormat string) (string, error)
	// SourceName returns a short provider label for logs and metrics
	// (e.g., "ChatGPT", "Gemini").
	SourceName() string
}
