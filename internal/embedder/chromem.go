package embedder

import (
	"context"

	"github.com/philippgille/chromem-go"
)

// AsEmbeddingFunc adapts an Embedder to the callback the vector
// collections invoke per document.
func AsEmbeddingFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
}
