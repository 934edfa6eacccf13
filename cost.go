package memoir

type TokenRates struct {
	Input  float64
	Output float64
}

// Pricing constants for GPT-4o and GPT-4o-mini and O3-mini (in dollars per million tokens)
const (
	GPT4oInputRate      = 2.5
	GPT4oOutputRate     = 10.0
	GPT4oMiniInputRate  = 0.15
	GPT4oMiniOutputRate = 0.60
	O3MiniInputRate     = 1.10
	O3MiniOutputRate    = 4.40
)

// ModelPricings is a map of model names to their pricing information
var ModelPricings = map[string]TokenRates{
	"gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"gpt-4o-mini": {
		Input:  GPT4oMiniInputRate,
		Output: GPT4oMiniOutputRate,
	},
	"o3-mini": {
		Input:  O3MiniInputRate,
		Output: O3MiniOutputRate,
	},
	"azure/gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"azure/gpt-4o-mini": {
		Input:  GPT4oMiniInputRate,
		Output: GPT4oMiniOutputRate,
	},
	"azure/o3-mini": {
		Input:  O3MiniInputRate,
		Output: O3MiniOutputRate,
	},
}

// Usage accumulates token counts across requests. Replaying history makes
// prompts grow with every turn, and the input-token curve is where that
// shows up first.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// CostDetails represents detailed cost information for a conversation
type CostDetails struct {
	InputTokens  int64
	OutputTokens int64
	TotalCost    float64
}

// CalculateCost prices the usage for the given model. The boolean is false
// when no pricing is known for the model.
func CalculateCost(model string, usage Usage) (*CostDetails, bool) {
	pricing, exists := ModelPricings[model]
	if !exists {
		return nil, false
	}

	inputCost := float64(usage.InputTokens) * pricing.Input / 1000000
	outputCost := float64(usage.OutputTokens) * pricing.Output / 1000000
	totalCost := inputCost + outputCost

	return &CostDetails{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalCost:    totalCost,
	}, true
}

// Cost returns the accumulated cost of the conversation.
// It calculates the cost based on the total input and output tokens and the pricing for the conversation's model.
func (c *Conversation) Cost() (*CostDetails, bool) {
	return CalculateCost(c.model, c.Usage())
}
