package domain

import (
	"slices"
	"time"
)

// DayBucket groups the activities occurring on one calendar day of a trip.
// Buckets cover every day of the trip, including days with no activities.
type DayBucket struct {
	Date       time.Time
	Activities []Activity
}

// BuildItinerary partitions activities into one bucket per day between
// startsAt and endsAt inclusive. Days are generated by fixed 24-hour steps
// from startsAt; the result is empty when startsAt is after endsAt.
//
// Activities are matched to a day by day-of-year, so an activity on the same
// ordinal day of a different year still lands in the bucket. Tightening this
// to a full-date comparison needs product sign-off first, since clients may
// rely on the current grouping.
//
// Within a bucket activities are sorted ascending by occurrence time, stable
// for ties. Inputs are never mutated and the function cannot fail.
func BuildItinerary(startsAt, endsAt time.Time, activities []Activity) []DayBucket {
	buckets := make([]DayBucket, 0)

	for day := startsAt; !day.After(endsAt); day = day.Add(24 * time.Hour) {
		selected := make([]Activity, 0)
		for _, activity := range activities {
			if activity.OccursAt.YearDay() == day.YearDay() {
				selected = append(selected, activity)
			}
		}

		slices.SortStableFunc(selected, func(a, b Activity) int {
			return a.OccursAt.Compare(b.OccursAt)
		})

		buckets = append(buckets, DayBucket{Date: day, Activities: selected})
	}

	return buckets
}
