// Package utils holds small helpers shared across the repo.
package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// HashString returns the hex md5 digest of the input. Used for cache
// keys only, not for anything security-sensitive.
func HashString(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
