package server

import (
	"errors"
	"testing"

	"github.com/nextdoorbuddy/neighborchat/internal/database"
	"github.com/nextdoorbuddy/neighborchat/internal/stats"
)

func TestChatServer_sweep(t *testing.T) {
	t.Run("expires stale presence and typing", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("ExpireStalePresence", presenceStaleAfter).Return(int64(3), nil).Once()
		db.On("ExpireStaleTyping", typingTTL).Return(int64(1), nil).Once()

		cs := newTestChatServer(t, db, &stats.MockStatsUpdater{})
		cs.sweep()
	})

	t.Run("one failing sweep does not stop the other", func(t *testing.T) {
		db := &database.MockNeighborChatRepository{}
		defer db.AssertExpectations(t)
		db.On("ExpireStalePresence", presenceStaleAfter).Return(int64(0), errors.New("db down")).Once()
		db.On("ExpireStaleTyping", typingTTL).Return(int64(0), nil).Once()

		su := &stats.MockStatsUpdater{}
		defer su.AssertExpectations(t)
		su.On("Incr", MetricReaperErrors).Once()

		cs := newTestChatServer(t, db, su)
		cs.sweep()
	})
}
