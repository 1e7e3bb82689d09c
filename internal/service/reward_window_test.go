package service

import (
	"testing"
	"time"
)

func TestSameRewardDay(t *testing.T) {
	cases := []struct {
		name string
		a    time.Time
		b    time.Time
		want bool
	}{
		{
			// 23:59 UTC and 00:05 UTC next day are both the same IST day
			// because IST is UTC+5:30.
			name: "utc midnight does not split the day",
			a:    time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 11, 0, 5, 0, 0, time.UTC),
			want: true,
		},
		{
			// 18:30 UTC is IST midnight.
			name: "claims straddling ist midnight differ",
			a:    time.Date(2025, 3, 10, 18, 29, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 10, 18, 31, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "same instant",
			a:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "exactly one day apart",
			a:    time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sameRewardDay(tc.a, tc.b); got != tc.want {
				t.Fatalf("sameRewardDay(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestNextRewardReset(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	reset := nextRewardReset(now)

	if !reset.After(now) {
		t.Fatalf("reset %v must be after now %v", reset, now)
	}
	if reset.Location() != time.UTC {
		t.Fatalf("reset must be returned in UTC, got %v", reset.Location())
	}

	// Next IST midnight after 17:30 IST is 18:30 UTC the same day.
	want := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	if !reset.Equal(want) {
		t.Fatalf("nextRewardReset(%v) = %v, want %v", now, reset, want)
	}

	if sameRewardDay(now, reset) {
		t.Fatal("reset instant must land in the next reward day")
	}
}
