package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TokenCounter estimates prompt size with the cl100k_base encoding. It is an
// estimate for logging; providers count with their own tokenizers.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

var (
	counterOnce sync.Once
	counter     *TokenCounter
	counterErr  error
)

// GetTokenCounter returns the shared counter, loading the encoding once.
func GetTokenCounter() (*TokenCounter, error) {
	counterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			counterErr = err
			return
		}
		counter = &TokenCounter{encoding: enc}
	})
	return counter, counterErr
}

// Count returns the token count of text. A nil counter falls back to four
// bytes per token.
func (t *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.encoding == nil {
		return (len(text) + 3) / 4
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessages sums Count over the system prompt and every message.
func (t *TokenCounter) CountMessages(system string, messages []Message) int {
	total := t.Count(system)
	for _, m := range messages {
		total += t.Count(m.Content)
	}
	return total
}
