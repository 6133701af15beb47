package config

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, geminiProject, geminiLocation, openaiAPIKey string) *LLM {
	return &LLM{
		provider:       provider,
		geminiProject:  geminiProject,
		geminiLocation: geminiLocation,
		openaiAPIKey:   openaiAPIKey,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string, draftTrigger bool) *Repository {
	return &Repository{
		backend:      backend,
		projectID:    projectID,
		draftTrigger: draftTrigger,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewEngineForTest creates an Engine config for testing purposes
func NewEngineForTest(path string) *Engine {
	return &Engine{path: path}
}

// ParsedDedupDelay exposes the parsed dedup delay
func (e *EngineConfig) ParsedDedupDelay() string {
	return e.dedupDelay.String()
}
