package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashClientIP returns an opaque, salted identifier for a client address so
// raw IPs are never stored with view events.
func HashClientIP(ip, salt string) string {
	key := []byte(salt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		sum := blake2b.Sum256([]byte(salt + "|" + ip))
		return hex.EncodeToString(sum[:])
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}
