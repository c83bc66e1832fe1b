package badger

import (
	"encoding/binary"

	"github.com/poiesic/archivist/core"
)

const (
	rowPrefix        = "row:"
	rowArticlePrefix = "rowart:"
	rowIDSeq         = "rowseq"
)

// makeRowKey generates a key for a row by ID.
// Format: prefix + id, big endian so keys sort by insertion order.
func makeRowKey(id core.ID) []byte {
	buf := make([]byte, len(rowPrefix)+8)
	offset := copy(buf, rowPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRowArticleKey generates a composite key for the article index.
// Format: prefix + articleID + rowID
func makeRowArticleKey(articleID, rowID core.ID) []byte {
	buf := make([]byte, len(rowArticlePrefix)+16)
	offset := copy(buf, rowArticlePrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(articleID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(rowID))
	return buf
}

// makePartialRowArticleKey generates a partial key for article queries.
// Format: prefix + articleID
func makePartialRowArticleKey(articleID core.ID) []byte {
	buf := make([]byte, len(rowArticlePrefix)+8)
	offset := copy(buf, rowArticlePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(articleID))
	return buf
}
