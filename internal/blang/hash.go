package blang

import (
	"hash/fnv"
	"strings"
)

// Hash returns the 32-bit FNV-1a fingerprint of the lowercased identifier.
// The empty identifier hashes to the FNV offset basis 0x811C9DC5.
func Hash(identifier string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(identifier)))
	return h.Sum32()
}
