package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is the BPE encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// Counter counts model tokens in a string.
// Implementations must be deterministic and safe for concurrent use.
type Counter interface {
	Count(text string) int
}

var loaderOnce sync.Once

// Tiktoken counts tokens with a fixed tiktoken encoding.
type Tiktoken struct {
	encoding string
	mu       sync.Mutex
	bpe      *tiktoken.Tiktoken
}

var _ Counter = (*Tiktoken)(nil)

// New returns a Counter backed by the named tiktoken encoding.
// An empty name selects DefaultEncoding.
func New(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	bpe, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}

	return &Tiktoken{
		encoding: encoding,
		bpe:      bpe,
	}, nil
}

// Encoding returns the encoding name.
func (t *Tiktoken) Encoding() string {
	return t.encoding
}

// Count returns the number of tokens in text. Special-token markers are
// counted as ordinary text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.bpe.EncodeOrdinary(text))
}

// CounterFunc adapts a plain function to the Counter interface.
type CounterFunc func(text string) int

// Count calls f(text).
func (f CounterFunc) Count(text string) int {
	return f(text)
}
