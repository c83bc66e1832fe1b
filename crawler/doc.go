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

// Package crawler walks a paginated article archive and turns each linked
// article page into a chunked core.Article.
//
// The archive's structure is described by a Selectors profile: a listing
// region holding title/link anchors, a date element, a content region and a
// next-page link. Index pages are visited sequentially in pagination order.
// Article pages linked from one index page are fetched concurrently on a
// bounded worker pool, but results keep the listing order.
//
// Extraction is best effort. A missing date or content region yields an empty
// string, and an article page that cannot be fetched is logged and skipped.
// Only a failure to retrieve an index page aborts the crawl.
package crawler
