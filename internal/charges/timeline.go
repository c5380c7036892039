package charges

import (
	"fmt"
	"sort"
	"time"

	"github.com/gridmarket/charges/internal/shared"
)

// Update splices a new open-ended tail into the timeline. The predecessor is
// truncated at the new start, periods the new one entirely supersedes are
// dropped, and an already-bounded future is preserved by clamping the new
// period's end to the previous tail end. Re-applying the same update leaves
// the timeline unchanged.
func (c *Charge) Update(newPeriod ChargePeriod) error {
	if !newPeriod.EndDateTime.Equal(EndDefault) {
		return fmt.Errorf("%w: charges: update period must be open ended, got end %s", shared.ErrInvariantViolation, newPeriod.EndDateTime)
	}
	if len(c.Periods) == 0 {
		return fmt.Errorf("%w: charges: update on empty timeline", shared.ErrInvariantViolation)
	}

	tail := c.Periods[len(c.Periods)-1]
	if !tail.EndDateTime.Equal(EndDefault) {
		newPeriod.EndDateTime = tail.EndDateTime
	}

	if c.Periods[0].StartDateTime.Before(newPeriod.StartDateTime) {
		if err := c.stopAt(newPeriod.StartDateTime); err != nil {
			return err
		}
	}

	kept := c.Periods[:0]
	for _, p := range c.Periods {
		if p.StartDateTime.Before(newPeriod.StartDateTime) {
			kept = append(kept, p)
		}
	}
	c.Periods = append(kept, newPeriod)
	c.sortPeriods()
	return nil
}

// Stop erases the timeline's future from stopDate onward: the period spanning
// stopDate is truncated to end exactly there and every later period is
// removed.
func (c *Charge) Stop(stopDate time.Time) error {
	if stopDate.IsZero() {
		return fmt.Errorf("%w: charges: stop date required", shared.ErrInvariantViolation)
	}
	if err := c.stopAt(stopDate); err != nil {
		return err
	}
	kept := c.Periods[:0]
	for _, p := range c.Periods {
		if p.StartDateTime.Before(stopDate) {
			kept = append(kept, p)
		}
	}
	c.Periods = kept
	return nil
}

// CancelStop reverses a prior Stop by resuming exactly where the timeline
// left off. Any other start date is a defect.
func (c *Charge) CancelStop(newPeriod ChargePeriod) error {
	if len(c.Periods) == 0 {
		return fmt.Errorf("%w: charges: cancel stop on empty timeline", shared.ErrInvariantViolation)
	}
	tail := c.Periods[len(c.Periods)-1]
	if !newPeriod.StartDateTime.Equal(tail.EndDateTime) {
		return fmt.Errorf("%w: charges: cancel stop must resume at %s, got %s", shared.ErrInvariantViolation, tail.EndDateTime, newPeriod.StartDateTime)
	}
	c.Periods = append(c.Periods, newPeriod)
	return nil
}

// stopAt truncates the period spanning stopDate so the timeline ends exactly
// there. A stop date outside every known period is a defect, not a no-op.
func (c *Charge) stopAt(stopDate time.Time) error {
	for _, p := range c.Periods {
		if p.EndDateTime.Equal(stopDate) {
			// Already stopped at this boundary.
			return nil
		}
	}
	idx := -1
	for i, p := range c.Periods {
		if !stopDate.Before(p.StartDateTime) && !stopDate.After(p.EndDateTime) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: charges: stop date %s outside timeline", shared.ErrInvariantViolation, stopDate)
	}

	period := c.Periods[idx]
	c.Periods = append(c.Periods[:idx], c.Periods[idx+1:]...)
	if !stopDate.Equal(period.StartDateTime) {
		period.EndDateTime = stopDate
		c.Periods = append(c.Periods, period)
		c.sortPeriods()
	}
	return nil
}

func (c *Charge) sortPeriods() {
	sort.Slice(c.Periods, func(i, j int) bool {
		return c.Periods[i].StartDateTime.Before(c.Periods[j].StartDateTime)
	})
}
