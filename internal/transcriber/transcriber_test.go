package transcriber

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenSRT(t *testing.T) {
	srt := `1
00:00:01,000 --> 00:00:04,000
Hello and welcome.

2
00:01:30,500 --> 00:01:33,000
Let's get started.
Second line of the cue.
`

	got := FlattenSRT(srt)
	want := "[00:01] Hello and welcome.\n[01:30] Let's get started.\nSecond line of the cue."
	assert.Equal(t, want, got)
}

func TestFlattenSRTHourRollover(t *testing.T) {
	srt := `1
01:02:03,000 --> 01:02:05,000
After an hour.
`
	// Hours fold into minutes.
	assert.Equal(t, "[62:03] After an hour.", FlattenSRT(srt))
}

func TestFlattenSRTEmpty(t *testing.T) {
	assert.Equal(t, "", FlattenSRT(""))
}
