// Package readme updates the two run-dependent fields embedded in the
// repository README: the last-update badge date and the total tracker count.
package readme

import (
	"fmt"
	"regexp"
	"time"
)

// DateFormat renders run dates the way the badge expects them.
const DateFormat = "2006/01/02"

var (
	datePattern = regexp.MustCompile(
		`\[!\[Last update\]\(https://img\.shields\.io/badge/Last%20update-\d{4}/\d{2}/\d{2}-%232ea043\?style=flat-square&logo=github\)\]\(#\)`)

	countPattern = regexp.MustCompile(`All Tracker list &emsp; \(\d+ trackers\)`)
)

// Patch substitutes the badge date and the tracker count in place. Content
// without the expected fields passes through unchanged; the patch is
// idempotent for a fixed date and count.
func Patch(content string, date time.Time, trackerCount int) string {
	badge := fmt.Sprintf(
		"[![Last update](https://img.shields.io/badge/Last%%20update-%s-%%232ea043?style=flat-square&logo=github)](#)",
		date.Format(DateFormat))
	patched := datePattern.ReplaceAllString(content, badge)

	count := fmt.Sprintf("All Tracker list &emsp; (%d trackers)", trackerCount)
	return countPattern.ReplaceAllString(patched, count)
}
