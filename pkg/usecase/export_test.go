package usecase

// BuildChatSystemPrompt is exported for testing
var BuildChatSystemPrompt = buildChatSystemPrompt
