package completion

import "time"

const (
	// BaseURL is the API root completion requests are sent under.
	BaseURL = "https://api.openai.com/v1/"
	// Endpoint is the completion endpoint every request is sent to.
	Endpoint = BaseURL + enginePath
	// MaxTokens is the fixed token budget of a completion.
	MaxTokens = 150

	enginePath      = "engines/davinci/completions"
	defaultTimeout  = 60 * time.Second
	maxResponseBody = 4 << 20
)

type completionRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}
