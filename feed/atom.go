package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"

	"github.com/meetverse/eventcal/recurrence"
)

// EncodeAtom writes the occurrences as an Atom feed for the site's
// "upcoming events" syndication. Cancelled instances get a "[cancelled]"
// title prefix rather than being dropped.
func EncodeAtom(w io.Writer, occurrences []recurrence.Occurrence, title, baseURL string, now time.Time) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("feed")
	root.CreateAttr("xmlns", "http://www.w3.org/2005/Atom")
	root.CreateElement("title").SetText(title)
	root.CreateElement("id").SetText(baseURL + "/feed.atom")
	root.CreateElement("updated").SetText(now.UTC().Format(time.RFC3339))

	link := root.CreateElement("link")
	link.CreateAttr("rel", "self")
	link.CreateAttr("href", baseURL+"/feed.atom")

	for _, occ := range occurrences {
		entry := root.CreateElement("entry")

		entryTitle := occ.Title
		if occ.IsCancelled {
			entryTitle = "[cancelled] " + entryTitle
		}
		entry.CreateElement("title").SetText(entryTitle)
		entry.CreateElement("id").SetText("urn:eventcal:" + occurrenceUID(occ))
		entry.CreateElement("updated").SetText(occ.Start.UTC().Format(time.RFC3339))

		entryLink := entry.CreateElement("link")
		entryLink.CreateAttr("href", fmt.Sprintf("%s/events/%s?date=%s", baseURL, occ.EventID, occ.Date))

		summary := fmt.Sprintf("%s at %s", occ.Start.Format("Mon, 2 Jan 2006 15:04"), occ.Location)
		if occ.IsCancelled && occ.CancelReason != "" {
			summary += " (cancelled: " + occ.CancelReason + ")"
		}
		entry.CreateElement("summary").SetText(summary)
		if occ.Description != "" {
			content := entry.CreateElement("content")
			content.CreateAttr("type", "text")
			content.SetText(occ.Description)
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write atom feed: %w", err)
	}
	return nil
}
