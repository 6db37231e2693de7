package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

func ChunkID(doc string, seq int) string {
	base := doc + ":" + strconv.Itoa(seq)
	h := sha1.Sum([]byte(base))
	return hex.EncodeToString(h[:])
}
