package inference

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Tiktoken counts BPE tokens with a tiktoken encoding.
type Tiktoken struct {
	codec tokenizer.Codec
}

// NewTiktoken loads the named encoding (e.g. "cl100k_base"). Encodings are
// embedded in the library so this never touches the network.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = string(tokenizer.Cl100kBase)
	}
	codec, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{codec: codec}, nil
}

// CountTokens returns the number of tokens in text, without special tokens.
func (t *Tiktoken) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	return len(ids), nil
}
