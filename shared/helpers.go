package shared

import (
	"crypto/rand"
	"encoding/base64"
)

func PointerTo[T any](v T) *T {
	return &v
}

func StringPtrToString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

// RandomID returns a URL-safe random identifier for JSON-RPC requests.
func RandomID() string {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		panic(err)
	}
	return base64.URLEncoding.EncodeToString(key)
}
