package util

import (
	"regexp"
	"strings"
)

var slashRuns = regexp.MustCompile(`/{2,}`)

// JoinPaths joins URL/storage path segments with single slashes. Runs of
// slashes inside segments are collapsed and the trailing slash is dropped,
// so templated segments can carry their own separators without producing
// double slashes in the final path.
func JoinPaths(segments ...string) string {
	joined := slashRuns.ReplaceAllString(strings.Join(segments, "/"), "/")

	return strings.TrimRight(joined, "/")
}
