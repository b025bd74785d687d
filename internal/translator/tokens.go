package translator

// DefaultMaxInputTokens is the largest input accepted for one translate call.
const DefaultMaxInputTokens = 3000

// EstimateTokens estimates the token count for a text at ~4 bytes per token.
// Non-empty text is at least one token.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len(text) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
