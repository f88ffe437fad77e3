// Package feed renders the public calendar feeds (ICS and Atom) from
// expanded, override-resolved occurrences.
package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/meetverse/eventcal/recurrence"
)

const productID = "-//eventcal//calendar feed//EN"

// EncodeICS writes the occurrences as an iCalendar document. Cancelled
// instances are emitted with STATUS:CANCELLED so subscribed clients can
// show the strikethrough state instead of silently dropping the entry.
func EncodeICS(w io.Writer, occurrences []recurrence.Occurrence, name string, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	for _, occ := range occurrences {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, occurrenceUID(occ))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, occ.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, occ.End.UTC())
		event.Props.SetText(ical.PropSummary, occ.Title)
		if occ.Description != "" {
			event.Props.SetText(ical.PropDescription, occ.Description)
		}
		if occ.Location != "" {
			event.Props.SetText(ical.PropLocation, occ.Location)
		}
		if occ.Category != "" {
			event.Props.SetText(ical.PropCategories, occ.Category)
		}
		if occ.URL != "" {
			event.Props.SetText(ical.PropURL, occ.URL)
		}
		if occ.IsCancelled {
			event.Props.SetText(ical.PropStatus, "CANCELLED")
		} else {
			event.Props.SetText(ical.PropStatus, "CONFIRMED")
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

// occurrenceUID derives the stable feed identity of an occurrence from the
// only identity it has: series id plus instance date.
func occurrenceUID(occ recurrence.Occurrence) string {
	return fmt.Sprintf("%s-%s@eventcal", occ.EventID, occ.Date)
}
