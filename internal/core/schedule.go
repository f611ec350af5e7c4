package core

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zenbox/zenbox/internal/model"
)

// VisibleAt computes when a stored message becomes visible to the recipient.
// Without batched delivery the message is visible immediately. With it, the
// message surfaces at the next configured daily window in the account's
// clock, rolling over to tomorrow's earliest window after the last one.
func VisibleAt(account *model.Account, receivedAt time.Time) time.Time {
	if !account.BatchedDeliveryEnabled {
		return receivedAt
	}

	windows := parseWindows(account.DeliveryWindows)
	if len(windows) == 0 {
		return receivedAt
	}
	sort.Ints(windows)

	loc := accountLocation(account)
	local := receivedAt.In(loc)
	nowMinutes := local.Hour()*60 + local.Minute()

	for _, w := range windows {
		if w > nowMinutes {
			return dayAtMinutes(local, w, loc)
		}
	}

	// Past the last window; deliver at tomorrow's earliest.
	return dayAtMinutes(local.AddDate(0, 0, 1), windows[0], loc)
}

func accountLocation(account *model.Account) *time.Location {
	if account.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(account.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// parseWindows converts "HH:MM" strings to minutes since midnight,
// discarding entries that do not parse.
func parseWindows(windows []string) []int {
	var out []int
	for _, w := range windows {
		hh, mm, ok := strings.Cut(strings.TrimSpace(w), ":")
		if !ok {
			continue
		}
		hour, err := strconv.Atoi(hh)
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		minute, err := strconv.Atoi(mm)
		if err != nil || minute < 0 || minute > 59 {
			continue
		}
		out = append(out, hour*60+minute)
	}
	return out
}

func dayAtMinutes(day time.Time, minutes int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc)
}
