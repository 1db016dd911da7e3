// Package resource holds the proxy specifications of the engine's file-backed
// resources (shaders, textures, materials), the YAML manifest that declares
// them, and the filesystem watcher that drives hot reload.
package resource

import (
	"encoding/binary"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// NormalizePath returns the form of p used for hashing and reload matching:
// NFC, slash-separated, cleaned.
func NormalizePath(p string) string {
	p = norm.NFC.String(p)
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.TrimPrefix(p, "./")
}

// contentHash folds the parts into a 64-bit key. Parts are length-prefixed
// so ("ab","c") and ("a","bc") differ.
func contentHash(kind string, parts ...string) uint64 {
	h, _ := blake2b.New256(nil)
	var n [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	write(kind)
	for _, p := range parts {
		write(p)
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}
