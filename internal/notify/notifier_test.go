package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	name   string
	titles []string
	err    error
}

func (s *recordingSender) Send(_ context.Context, title, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.titles = append(s.titles, title)
	return nil
}

func (s *recordingSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNotifierEventFilter(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed events pass", func(t *testing.T) {
		sender := &recordingSender{name: "discord"}
		n := NewNotifier([]Sender{sender}, []string{EventOpportunityFound}, testLogger())

		require.NoError(t, n.Notify(ctx, EventOpportunityFound, "Flip found", "details"))
		assert.Equal(t, []string{"Flip found"}, sender.titles)
	})

	t.Run("filtered events are dropped silently", func(t *testing.T) {
		sender := &recordingSender{name: "discord"}
		n := NewNotifier([]Sender{sender}, []string{EventOpportunityFound}, testLogger())

		require.NoError(t, n.Notify(ctx, EventError, "Something broke", "details"))
		assert.Empty(t, sender.titles)
	})

	t.Run("empty filter passes everything", func(t *testing.T) {
		sender := &recordingSender{name: "telegram"}
		n := NewNotifier([]Sender{sender}, nil, testLogger())

		require.NoError(t, n.Notify(ctx, "anything", "title", "message"))
		assert.Len(t, sender.titles, 1)
	})

	t.Run("NotifyAll bypasses the filter", func(t *testing.T) {
		sender := &recordingSender{name: "telegram"}
		n := NewNotifier([]Sender{sender}, []string{EventOpportunityFound}, testLogger())

		require.NoError(t, n.NotifyAll(ctx, "title", "message"))
		assert.Len(t, sender.titles, 1)
	})
}

func TestNotifierDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("no senders is a no-op", func(t *testing.T) {
		n := NewNotifier(nil, nil, testLogger())
		assert.NoError(t, n.Notify(ctx, EventAnalysisDone, "title", "message"))
	})

	t.Run("one failing sender does not block the others", func(t *testing.T) {
		broken := &recordingSender{name: "discord", err: errors.New("webhook 500")}
		working := &recordingSender{name: "telegram"}
		n := NewNotifier([]Sender{broken, working}, nil, testLogger())

		err := n.Notify(ctx, EventAnalysisDone, "title", "message")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "discord")
		assert.Len(t, working.titles, 1, "healthy sender still delivers")
	})
}
