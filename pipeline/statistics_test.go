package pipeline

import (
	"testing"

	"github.com/nthm-io/httpcore/message"
	"github.com/stretchr/testify/require"
)

func TestStatisticsStageCountsRequestsAndConnections(t *testing.T) {
	s := NewStatisticsStage()

	down, up := s.Build(&Context{}, func(Command) {}, func(Event) {})

	up(Event{RequestStart: &message.RequestStart{}})
	down(Command{ResponseStarted: true})

	snap := s.Snapshot()
	require.Equal(t, uint64(1), snap.TotalRequests)
	require.Equal(t, uint64(1), snap.TotalConnections)
	require.Equal(t, int64(0), snap.OpenRequests)
}

func TestStatisticsStageTracksMaxOpenRequests(t *testing.T) {
	s := NewStatisticsStage()

	down, up := s.Build(&Context{}, func(Command) {}, func(Event) {})

	up(Event{RequestStart: &message.RequestStart{}})
	up(Event{RequestStart: &message.RequestStart{}})
	down(Command{ResponseStarted: true})

	snap := s.Snapshot()
	require.Equal(t, uint64(2), snap.MaxOpenRequests)
	require.Equal(t, int64(1), snap.OpenRequests)
}

func TestStatisticsStageCountsIdleTimeouts(t *testing.T) {
	s := NewStatisticsStage()

	_, up := s.Build(&Context{}, func(Command) {}, func(Event) {})
	up(Event{Closed: true, Reason: IdleTimeout})

	snap := s.Snapshot()
	require.Equal(t, uint64(1), snap.IdleTimeouts)
	require.Equal(t, int64(0), snap.OpenConnections)
}

func TestStatisticsStageClearResetsEveryCounter(t *testing.T) {
	s := NewStatisticsStage()

	_, up := s.Build(&Context{}, func(Command) {}, func(Event) {})
	up(Event{RequestStart: &message.RequestStart{}})

	s.Clear()

	snap := s.Snapshot()
	require.Equal(t, uint64(0), snap.TotalRequests)
	require.Equal(t, uint64(0), snap.TotalConnections)
}
