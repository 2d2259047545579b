package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString produces the md5 hex digest used for article ids and cache keys.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
