package grading

import (
	"regexp"
	"strings"
)

var invalidNameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeName makes name safe to use as a file name on any platform.
func SanitizeName(name string) string {
	return strings.Trim(invalidNameChars.ReplaceAllString(name, "_"), " .")
}

// CellFilename is the cache name of the file a submission uploaded for a
// question, e.g. "q3_jdoe".
func CellFilename(questionID, submissionID string) string {
	return SanitizeName(questionID + "_" + submissionID)
}
