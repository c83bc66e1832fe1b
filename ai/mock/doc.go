// Package mock provides test doubles for the ai package.
//
// The mocks allow tests of the embed stage to run without a model server.
//
// # Usage
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	embedder := provider.Embedder()
//
//	// Custom behavior
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Fail selected texts
//	mockEmbedder.FailOn("bad chunk")
//
//	// Check call counts and inputs
//	count := mockEmbedder.CallCount()
//	texts := mockEmbedder.Texts()
//
// # Default Behavior
//
// MockEmbedder returns deterministic unit vectors derived from a hash of the
// text, so the same text always embeds to the same vector.
package mock
