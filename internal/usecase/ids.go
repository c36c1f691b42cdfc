package usecase

import (
	"fmt"
	"hash/fnv"

	"github.com/yourusername/agro-assistant-bot/pkg/textnorm"
)

// ShortID 8 hex chars of FNV-1a over the key; short enough for callback data.
func ShortID(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%08x", h.Sum32())
}

// LabelID id of a free-form label (category, product type, product name).
func LabelID(label string) string {
	return ShortID(textnorm.Normalize(label))
}
