package pipeline

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchiveRunnerNextRun(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	runner := NewArchiveRunner(nil, 90, 3, logger)

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the scheduled hour runs same day",
			now:  time.Date(2026, 8, 20, 1, 30, 0, 0, time.UTC),
			want: time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "after the scheduled hour rolls to the next day",
			now:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 21, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour rolls to the next day",
			now:  time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 21, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "non-UTC input is normalized",
			now:  time.Date(2026, 8, 20, 1, 0, 0, 0, time.FixedZone("UTC+2", 2*60*60)),
			want: time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := runner.nextRun(tc.now)
			assert.True(t, got.Equal(tc.want), "got %v, want %v", got, tc.want)
		})
	}
}
