package readme_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tracknest/trackersync/internal/readme"
)

const sampleReadme = `# Tracker-List

[![Last update](https://img.shields.io/badge/Last%20update-2024/01/31-%232ea043?style=flat-square&logo=github)](#)

All Tracker list &emsp; (1234 trackers)

Some other text that must stay untouched.
`

func TestPatch(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

	patched := readme.Patch(sampleReadme, date, 2048)

	assert.Contains(t, patched,
		"[![Last update](https://img.shields.io/badge/Last%20update-2025/03/09-%232ea043?style=flat-square&logo=github)](#)")
	assert.Contains(t, patched, "All Tracker list &emsp; (2048 trackers)")
	assert.NotContains(t, patched, "2024/01/31")
	assert.NotContains(t, patched, "1234 trackers")
	assert.Contains(t, patched, "Some other text that must stay untouched.")
}

func TestPatchIdempotent(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

	once := readme.Patch(sampleReadme, date, 2048)
	twice := readme.Patch(once, date, 2048)

	assert.Equal(t, once, twice)
}

func TestPatchWithoutFieldsPassesThrough(t *testing.T) {
	t.Parallel()

	content := "# A README with neither field\n"

	assert.Equal(t, content, readme.Patch(content, time.Now(), 99))
}
