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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/archivist/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %v", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// Row layout: id, title, url, date, content, content tokens, embedding
// length, embedding values, inserted-at in Unix microseconds.

func rowSize(row *core.Row) int {
	size := varint.Uint64.Size(uint64(row.Id))
	size += ord.String.Size(row.ArticleTitle)
	size += ord.String.Size(row.ArticleURL)
	size += ord.String.Size(row.ArticleDate)
	size += ord.String.Size(row.Content)
	size += varint.Int.Size(row.ContentTokens)
	size += varint.Int.Size(len(row.Embedding))
	for _, v := range row.Embedding {
		size += raw.Float32.Size(v)
	}
	size += varint.Int64.Size(row.InsertedAt.UnixMicro())
	return size
}

// MarshalRow serializes a Row to bytes.
func MarshalRow(row *core.Row) []byte {
	buf := make([]byte, rowSize(row))
	n := varint.Uint64.Marshal(uint64(row.Id), buf)
	n += ord.String.Marshal(row.ArticleTitle, buf[n:])
	n += ord.String.Marshal(row.ArticleURL, buf[n:])
	n += ord.String.Marshal(row.ArticleDate, buf[n:])
	n += ord.String.Marshal(row.Content, buf[n:])
	n += varint.Int.Marshal(row.ContentTokens, buf[n:])
	n += varint.Int.Marshal(len(row.Embedding), buf[n:])
	for _, v := range row.Embedding {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	varint.Int64.Marshal(row.InsertedAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalRow deserializes a Row from bytes.
func UnmarshalRow(data []byte) (*core.Row, error) {
	var (
		row core.Row
		n   int
	)

	id, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, rowError("id", err)
	}
	row.Id = core.ID(id)
	n += m

	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"article_title", &row.ArticleTitle},
		{"article_url", &row.ArticleURL},
		{"article_date", &row.ArticleDate},
		{"content", &row.Content},
	} {
		s, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, rowError(field.name, err)
		}
		*field.dst = s
		n += m
	}

	row.ContentTokens, m, err = varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, rowError("content_tokens", err)
	}
	n += m

	length, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, rowError("embedding length", err)
	}
	n += m
	if length < 0 {
		return nil, fmt.Errorf("%w: negative embedding length %d", ErrSerializationFailed, length)
	}
	if length > (len(data)-n)/4 {
		return nil, fmt.Errorf("%w: embedding of %d values", ErrTruncatedData, length)
	}

	row.Embedding = make([]float32, length)
	for i := range row.Embedding {
		row.Embedding[i], m, err = raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, rowError("embedding", err)
		}
		n += m
	}

	micros, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, rowError("inserted_at", err)
	}
	row.InsertedAt = time.UnixMicro(micros).UTC()

	return &row, nil
}

func rowError(field string, err error) error {
	return fmt.Errorf("%w: row %s: %v", ErrSerializationFailed, field, err)
}
