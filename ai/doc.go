// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai defines the embedding service used by the embed stage.
//
// The pipeline only ever needs one thing from a model: a fixed-length vector
// for a chunk of text. That contract is the Embedder interface. A Provider
// owns an Embedder for the lifetime of a run and releases it on Close.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI and OpenAI-compatible embedding APIs via langchaingo
//   - ai/mock: deterministic test doubles with failure injection
//
// # Configuration
//
//	cfg := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithEmbeddingModel("text-embedding-ada-002"),
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, chunk.Content)
package ai
