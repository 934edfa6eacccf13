package memoir

// Model context windows are finite while session histories are not, so a
// replayed history eventually has to lose its head. ClampTurns keeps only
// the most recent max turns.
func ClampTurns(turns []Turn, max int) []Turn {
	if max <= 0 || len(turns) <= max {
		return turns
	}
	return turns[len(turns)-max:]
}

// messageOverhead approximates the per-message framing tokens the chat
// format adds around the content.
const messageOverhead = 4

// EstimateTokens gives a rough token count for text. English prose tokenizes
// at about four characters per token; the estimate is for pre-flight budget
// checks, not billing.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := len([]rune(text))
	tokens := runes / 4
	if runes%4 != 0 {
		tokens++
	}
	return tokens
}

// EstimateTurnTokens sums the estimate over turns, including per-message
// overhead.
func EstimateTurnTokens(turns []Turn) int {
	total := 0
	for _, t := range turns {
		total += EstimateTokens(t.Content) + messageOverhead
	}
	return total
}

// FitTurns drops turns from the front until the estimated token count fits
// the budget. The newest turns always survive; a budget smaller than the
// newest single turn returns just that turn anyway, since replaying nothing
// would drop the question being answered.
func FitTurns(turns []Turn, budgetTokens int) []Turn {
	if budgetTokens <= 0 || len(turns) == 0 {
		return turns
	}
	start := 0
	total := EstimateTurnTokens(turns)
	for total > budgetTokens && start < len(turns)-1 {
		total -= EstimateTokens(turns[start].Content) + messageOverhead
		start++
	}
	return turns[start:]
}
