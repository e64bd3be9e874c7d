// Package util contains small helpers used across the application that don't
// match any other package
package util

import (
	"math/rand"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

var src = rand.New(rand.NewSource(time.Now().UnixNano()))

// RandStr returns a random lowercase alphanumeric string of length n. Used
// for temp file prefixes and queue directory names where collisions only
// cost an extra stat call.
func RandStr(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[src.Intn(len(charset))]
	}

	return string(b)
}
