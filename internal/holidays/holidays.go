// Package holidays is the read-only non-working-date collaborator. It is
// consulted only when pre-seeding availability exceptions, never during
// availability resolution.
package holidays

import (
	"context"
	"time"
)

// Provider answers whether a date is a non-working date in a region.
type Provider interface {
	IsNonWorkingDate(ctx context.Context, date time.Time, region string) (bool, string, error)
}

type fixedDate struct {
	month time.Month
	day   int
	name  string
}

// StaticProvider serves a built-in table of fixed-date public holidays per
// region. Movable holidays are out of its scope; providers add those as
// regular exceptions.
type StaticProvider struct {
	regions map[string][]fixedDate
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		regions: map[string][]fixedDate{
			"US": {
				{time.January, 1, "New Year's Day"},
				{time.July, 4, "Independence Day"},
				{time.December, 25, "Christmas Day"},
			},
			"GB": {
				{time.January, 1, "New Year's Day"},
				{time.December, 25, "Christmas Day"},
				{time.December, 26, "Boxing Day"},
			},
			"DE": {
				{time.January, 1, "Neujahr"},
				{time.May, 1, "Tag der Arbeit"},
				{time.October, 3, "Tag der Deutschen Einheit"},
				{time.December, 25, "Erster Weihnachtstag"},
				{time.December, 26, "Zweiter Weihnachtstag"},
			},
		},
	}
}

func (p *StaticProvider) IsNonWorkingDate(_ context.Context, date time.Time, region string) (bool, string, error) {
	for _, h := range p.regions[region] {
		if date.Month() == h.month && date.Day() == h.day {
			return true, h.name, nil
		}
	}
	return false, "", nil
}
