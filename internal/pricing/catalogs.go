package pricing

const (
	DefaultOpenAIModel = "gpt-5-nano-2025-08-07"
	DefaultClaudeModel = "claude-3-5-haiku-latest"
	DefaultGeminiModel = "gemini-1.5-flash"
)

var openAICatalog = Catalog{
	"gpt-5-nano-2025-08-07": {
		ID:          "gpt-5-nano-2025-08-07",
		Name:        "GPT-5 Nano",
		InputPer1K:  0.0001,
		OutputPer1K: 0.0003,
		ContextSize: 128000,
	},
	"gpt-5-mini-2025-08-07": {
		ID:          "gpt-5-mini-2025-08-07",
		Name:        "GPT-5 Mini",
		InputPer1K:  0.00015,
		OutputPer1K: 0.0006,
		ContextSize: 128000,
	},
}

var claudeCatalog = Catalog{
	"claude-3-5-haiku-latest": {
		ID:          "claude-3-5-haiku-latest",
		Name:        "Claude 3.5 Haiku Latest",
		InputPer1K:  0.001,
		OutputPer1K: 0.005,
		ContextSize: 200000,
	},
	"claude-3-7-sonnet-latest": {
		ID:          "claude-3-7-sonnet-latest",
		Name:        "Claude 3.7 Sonnet Latest",
		InputPer1K:  0.003,
		OutputPer1K: 0.015,
		ContextSize: 200000,
	},
	"claude-3-haiku-20240307": {
		ID:          "claude-3-haiku-20240307",
		Name:        "Claude 3 Haiku",
		InputPer1K:  0.00025,
		OutputPer1K: 0.00125,
		ContextSize: 200000,
	},
}

var geminiCatalog = Catalog{
	"gemini-1.5-flash": {
		ID:          "gemini-1.5-flash",
		Name:        "Gemini 1.5 Flash",
		InputPer1K:  0.000075,
		OutputPer1K: 0.0003,
		ContextSize: 1000000,
	},
	"gemini-1.5-pro": {
		ID:          "gemini-1.5-pro",
		Name:        "Gemini 1.5 Pro",
		InputPer1K:  0.00125,
		OutputPer1K: 0.005,
		ContextSize: 2000000,
	},
}

func OpenAI() Catalog { return openAICatalog.Clone() }
func Claude() Catalog { return claudeCatalog.Clone() }
func Gemini() Catalog { return geminiCatalog.Clone() }
