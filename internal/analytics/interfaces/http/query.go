package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dstech-dashboard/internal/analytics/domain/alarm"
	"dstech-dashboard/internal/analytics/domain/period"
)

const (
	dateLayout        = "2006-01-02"
	defaultPeriodDays = 7
)

// ParsePeriod reads the from and to query parameters. Dates (YYYY-MM-DD)
// are calendar days in loc with an inclusive last day; RFC3339 values are
// exact bounds. Without parameters the last seven days ending today are
// used.
func ParsePeriod(r *http.Request, now time.Time, loc *time.Location) (period.Period, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	rawFrom := strings.TrimSpace(r.URL.Query().Get("from"))
	rawTo := strings.TrimSpace(r.URL.Query().Get("to"))
	if rawFrom == "" && rawTo == "" {
		return period.LastNDays(now, defaultPeriodDays), nil
	}

	if rawFrom == "" {
		return period.Period{}, errors.New("from is required when to is set")
	}
	start, _, err := parseBound(rawFrom, loc)
	if err != nil {
		return period.Period{}, errors.New("from must be YYYY-MM-DD or RFC3339")
	}
	var end time.Time
	if rawTo == "" {
		end = period.StartOfDay(now).AddDate(0, 0, 1)
	} else {
		var isDate bool
		end, isDate, err = parseBound(rawTo, loc)
		if err != nil {
			return period.Period{}, errors.New("to must be YYYY-MM-DD or RFC3339")
		}
		if isDate {
			end = end.AddDate(0, 0, 1)
		}
	}
	p, err := period.New(start, end)
	if err != nil {
		return period.Period{}, errors.New("to must be after from")
	}
	return p, nil
}

func parseBound(value string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, restoreOffsetSign(value))
	if err != nil {
		return time.Time{}, false, err
	}
	return t.In(loc), false, nil
}

// restoreOffsetSign undoes form decoding of an unescaped "+hh:mm" offset,
// which arrives as a space after the seconds.
func restoreOffsetSign(value string) string {
	idx := strings.LastIndexByte(value, ' ')
	if idx < len("2006-01-02T15:04:05") || strings.Count(value, " ") != 1 {
		return value
	}
	return value[:idx] + "+" + value[idx+1:]
}

// ParseClientID reads the optional client_id parameter; 0 means all clients.
func ParseClientID(r *http.Request) (int, error) {
	return parseNonNegative(r, "client_id")
}

func parseNonNegative(r *http.Request, key string) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

func parseStrategy(r *http.Request) (alarm.CountStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("count"))) {
	case "", "rows":
		return alarm.CountRows, nil
	case "distinct":
		return alarm.CountDistinct, nil
	default:
		return alarm.CountRows, errors.New("count must be rows or distinct")
	}
}
