package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func copenhagen(t *testing.T, now func() time.Time) *ZonedTimeService {
	t.Helper()
	s, err := NewZonedTimeServiceAt("Europe/Copenhagen", now)
	require.NoError(t, err)
	return s
}

func TestNewZonedTimeServiceRejectsUnknownZone(t *testing.T) {
	_, err := NewZonedTimeService("Mars/Olympus_Mons")
	require.Error(t, err)
}

func TestTodayAtMidnightFollowsZone(t *testing.T) {
	// 23:30 UTC on Jan 14 is already Jan 15 in Copenhagen.
	s := copenhagen(t, func() time.Time {
		return time.Date(2024, time.January, 14, 23, 30, 0, 0, time.UTC)
	})

	midnight := s.TodayAtMidnight()
	require.Equal(t, 15, midnight.Day())
	require.Equal(t, 0, midnight.Hour())
	require.Equal(t, "Europe/Copenhagen", midnight.Location().String())
}

func TestIsMidnightComparesInZone(t *testing.T) {
	s := copenhagen(t, time.Now)

	// 23:00 UTC in winter is exactly midnight CET.
	require.True(t, s.IsMidnight(time.Date(2024, time.January, 14, 23, 0, 0, 0, time.UTC)))
	require.False(t, s.IsMidnight(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)))

	// In summer the offset is two hours.
	require.True(t, s.IsMidnight(time.Date(2024, time.June, 14, 22, 0, 0, 0, time.UTC)))
}

func TestIsFirstOfMonth(t *testing.T) {
	s := copenhagen(t, time.Now)

	require.True(t, s.IsFirstOfMonth(time.Date(2024, time.January, 31, 23, 0, 0, 0, time.UTC)))
	require.False(t, s.IsFirstOfMonth(time.Date(2024, time.February, 1, 23, 0, 0, 0, time.UTC)))
	require.False(t, s.IsFirstOfMonth(time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)))
}

func TestResolveLocalLenientlySurvivesSpringGap(t *testing.T) {
	s := copenhagen(t, time.Now)

	// 02:30 local does not exist on the spring transition day; lenient
	// resolution still yields a valid instant in the zone.
	loc, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)
	gap := time.Date(2024, time.March, 31, 2, 30, 0, 0, loc)

	resolved := s.ResolveLocalLeniently(gap)
	require.Equal(t, "Europe/Copenhagen", resolved.Location().String())
	require.False(t, resolved.IsZero())
}

func TestAtMidnightTruncates(t *testing.T) {
	s := copenhagen(t, time.Now)

	loc, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)
	midnight := s.AtMidnight(time.Date(2024, time.May, 14, 17, 45, 12, 99, loc))
	require.Equal(t, time.Date(2024, time.May, 14, 0, 0, 0, 0, loc), midnight)
}
