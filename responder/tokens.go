package responder

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// estimateTokens approximates the prompt size for request logs. It returns
// -1 when no encoding is available.
func estimateTokens(text string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return -1
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return -1
	}
	return len(ids)
}
