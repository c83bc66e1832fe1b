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

// Package tokenizer counts model tokens in text.
//
// Token counts are used both as the chunk-size budget and as the cost proxy for the
// embedding service, so every stage must count with the same encoding. The default
// encoding is cl100k_base, the encoding used by OpenAI's embedding models.
//
// BPE vocabularies are loaded from data embedded in the binary, so counting never
// touches the network and counts computed at crawl time can be re-verified later.
package tokenizer
