package performance

import "time"

// apiDateLayouts are the date formats observed from the BFF's
// timeSeries entries, tried in order.
var apiDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

func parseAPIDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
