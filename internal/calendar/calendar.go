// Package calendar renders timestamps in the Solar Hijri (Shamsi) calendar.
package calendar

import (
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Layout documents the shape produced by Format.
const Layout = "yyyy/MM/dd HH:mm:ss"

// Formatter converts instants to Shamsi wall-clock strings in a fixed zone.
type Formatter struct {
	loc *time.Location
}

// New returns a Formatter for the named IANA zone (e.g. "Asia/Tehran").
func New(location string) (*Formatter, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", location, err)
	}
	return &Formatter{loc: loc}, nil
}

// NewInLocation returns a Formatter for an already resolved zone.
func NewInLocation(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// Location returns the zone used for formatting.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Format renders t as "yyyy/MM/dd HH:mm:ss" in the Shamsi calendar.
func (f *Formatter) Format(t time.Time) string {
	pt := ptime.New(t.In(f.loc))
	return fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%02d",
		pt.Year(), int(pt.Month()), pt.Day(),
		pt.Hour(), pt.Minute(), pt.Second())
}
