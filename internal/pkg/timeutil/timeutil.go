package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

// ParseClock parses a 24h "HH:MM" string into hour and minute.
func ParseClock(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
