package services

import (
	"context"
	"time"

	"booking-bot/internal/models"
)

// maxSlots caps a day's offered slots at the 10x7 inline keyboard grid.
const maxSlots = 70

// Day is one calendar cell. Holiday cells are the fixed non-working
// placeholder column; blocked cells re-render the calendar on press.
type Day struct {
	Date       time.Time
	Selectable bool
	Holiday    bool
}

// SlotSource is the one storage question availability needs answered:
// which times of day are already held for a specialist on a given day.
type SlotSource interface {
	PendingClocks(ctx context.Context, specID int64, day time.Time) ([]int, error)
}

type ScheduleService struct {
	bookings SlotSource
}

func NewScheduleService(bookings SlotSource) *ScheduleService {
	return &ScheduleService{bookings: bookings}
}

// Calendar lays out the current week plus three following weeks, Monday
// first, as 4 rows of 7 cells. The 7th column is the non-working
// placeholder. Past days are blocked; today stays selectable only while a
// slot could still start (clock <= end - interval).
func (s *ScheduleService) Calendar(spec *models.Specialist, now time.Time) [][]Day {
	// Monday-first index of today, 1..7.
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	weeks := make([][]Day, 0, 4)
	for w := 0; w < 4; w++ {
		row := make([]Day, 0, 7)
		for c := 1; c <= 6; c++ {
			date := today.AddDate(0, 0, c-weekday+w*7)
			row = append(row, Day{
				Date:       date,
				Selectable: s.selectable(spec, date, today, now),
			})
		}
		row = append(row, Day{
			Date:    today.AddDate(0, 0, 7-weekday+w*7),
			Holiday: true,
		})
		weeks = append(weeks, row)
	}
	return weeks
}

func (s *ScheduleService) selectable(spec *models.Specialist, date, today, now time.Time) bool {
	if date.Before(today) {
		return false
	}
	if date.Equal(today) {
		return models.ClockOf(now) <= spec.End-spec.Interval
	}
	return true
}

// OpenSlots enumerates the specialist's slot grid for one day and drops
// everything already pending. Slots are minutes since midnight, ascending.
// For today only future times are offered. The result is capped at the
// display grid size; overflow is silently not offered.
func (s *ScheduleService) OpenSlots(ctx context.Context, spec *models.Specialist, date, now time.Time) ([]int, error) {
	booked, err := s.bookings.PendingClocks(ctx, spec.ID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool, len(booked))
	for _, c := range booked {
		taken[c] = true
	}

	sameDay := date.Year() == now.Year() && date.YearDay() == now.YearDay()
	nowClock := models.ClockOf(now)

	var slots []int
	for t := spec.Start; t < spec.End; t += spec.Interval {
		if taken[t] {
			continue
		}
		if sameDay && t <= nowClock {
			continue
		}
		slots = append(slots, t)
		if len(slots) == maxSlots {
			break
		}
	}
	return slots, nil
}
