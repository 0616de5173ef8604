package calendar

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	f := NewInLocation(tehran)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "mid month",
			in:   time.Date(2023, 10, 8, 9, 0, 0, 0, time.UTC),
			want: "1402/07/16 12:30:00",
		},
		{
			name: "new year day",
			in:   time.Date(2024, 3, 20, 12, 0, 0, 0, tehran),
			want: "1403/01/01 12:00:00",
		},
		{
			name: "zone shift crosses midnight",
			in:   time.Date(2023, 10, 7, 22, 45, 5, 0, time.UTC),
			want: "1402/07/16 02:15:05",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Format(tt.in); got != tt.want {
				t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	f, err := New("UTC")
	if err != nil {
		t.Fatalf("New(UTC) error = %v", err)
	}
	if f.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", f.Location())
	}

	if _, err := New("Not/AZone"); err == nil {
		t.Error("New(Not/AZone) expected error")
	}
}

func TestNewInLocation_NilIsUTC(t *testing.T) {
	f := NewInLocation(nil)
	if f.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", f.Location())
	}
}
