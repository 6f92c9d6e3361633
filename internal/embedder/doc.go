// Package embedder generates vector embeddings for chunk content.
//
// Two providers are available: the OpenAI embeddings API and a
// deterministic local provider that needs no network or key. Both sit
// behind the Embedder interface and share an LRU cache keyed by content
// hash, so re-indexing unchanged chunks never repeats provider calls.
// API calls retry with exponential backoff.
//
// # Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vec, err := emb.Embed(ctx, chunk.Content)
//
// AsEmbeddingFunc adapts an Embedder to the callback shape the vector
// index expects. Vectors are normalized to unit length so cosine
// similarity is a plain dot product.
package embedder
