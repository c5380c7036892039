package shared

import (
	"fmt"
	"time"
)

// ZonedTimeService resolves instants and wall-clock times in the market time
// zone. All calendar arithmetic for charge validation goes through it so that
// "today", midnight boundaries and day offsets agree on one IANA zone.
type ZonedTimeService struct {
	loc *time.Location
	now func() time.Time
}

// NewZonedTimeService loads the IANA zone and wires the wall clock.
func NewZonedTimeService(zoneID string) (*ZonedTimeService, error) {
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("shared: load time zone %q: %w", zoneID, err)
	}
	return &ZonedTimeService{loc: loc, now: time.Now}, nil
}

// NewZonedTimeServiceAt is like NewZonedTimeService with an injected clock.
func NewZonedTimeServiceAt(zoneID string, now func() time.Time) (*ZonedTimeService, error) {
	s, err := NewZonedTimeService(zoneID)
	if err != nil {
		return nil, err
	}
	s.now = now
	return s, nil
}

// ZoneID returns the configured IANA zone identifier.
func (s *ZonedTimeService) ZoneID() string {
	return s.loc.String()
}

// InZone maps an instant onto the configured zone.
func (s *ZonedTimeService) InZone(t time.Time) time.Time {
	return t.In(s.loc)
}

// ResolveLocalLeniently maps a wall-clock reading onto the configured zone.
// During DST transitions a wall clock can be ambiguous or skipped; the
// resolution picks one valid instant instead of failing.
func (s *ZonedTimeService) ResolveLocalLeniently(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), s.loc)
}

// TodayAtMidnight returns local midnight of the current zoned day.
func (s *ZonedTimeService) TodayAtMidnight() time.Time {
	return s.AtMidnight(s.now())
}

// AtMidnight returns local midnight of the zoned day containing t.
func (s *ZonedTimeService) AtMidnight(t time.Time) time.Time {
	z := t.In(s.loc)
	return time.Date(z.Year(), z.Month(), z.Day(), 0, 0, 0, 0, s.loc)
}

// IsMidnight reports whether the instant falls exactly on local midnight.
func (s *ZonedTimeService) IsMidnight(t time.Time) bool {
	z := t.In(s.loc)
	return z.Hour() == 0 && z.Minute() == 0 && z.Second() == 0 && z.Nanosecond() == 0
}

// IsFirstOfMonth reports whether the instant is local midnight on the first
// day of a month.
func (s *ZonedTimeService) IsFirstOfMonth(t time.Time) bool {
	return s.IsMidnight(t) && t.In(s.loc).Day() == 1
}
