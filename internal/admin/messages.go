// ABOUTME: Notices shown after saving an item or running a bulk action.
// ABOUTME: Counts are formatted with x/text/message for grouped thousands.

package admin

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
)

// Saved message codes passed as ?message=N after an item is saved.
const (
	MsgUpdated       = 1
	MsgFieldUpdated  = 2
	MsgFieldDeleted  = 3
	MsgUpdatedNoLink = 4
	MsgRestored      = 5
	MsgPublished     = 6
	MsgSaved         = 7
	MsgSubmitted     = 8
	MsgScheduled     = 9
	MsgDraftUpdated  = 10
)

const scheduledDateFormat = "Jan 2, 2006 @ 15:04"

// BulkKinds lists the bulk notice kinds in display order.
var BulkKinds = []string{"updated", "locked", "deleted", "trashed", "untrashed"}

var printer = message.NewPrinter(language.English)

// formatCount formats n with grouped thousands.
func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// plural picks single for a count of one and many otherwise.
func plural(single, many string, n int) string {
	if n == 1 {
		return single
	}
	return many
}

// UpdatedMessage returns the notice for a saved message code. permalink is
// the public URL of item. It reports false for unknown codes and for
// restores, which this store does not keep revisions for.
func UpdatedMessage(ct *config.ContentType, code int, item *content.Item, permalink string) (string, bool) {
	singular := html.EscapeString(ct.Names.Singular)
	lower := html.EscapeString(ct.Names.SingularLower)
	view := html.EscapeString(permalink)
	sep := "?"
	if strings.Contains(permalink, "?") {
		sep = "&"
	}
	preview := html.EscapeString(permalink + sep + "preview=true")

	withLink := func(text, format, href string) string {
		if !ct.Public {
			return text
		}
		return text + " " + fmt.Sprintf(format, href, lower)
	}

	switch code {
	case MsgUpdated:
		return withLink(singular+" updated.", `<a href="%s">View %s</a>`, view), true
	case MsgFieldUpdated:
		return "Custom field updated.", true
	case MsgFieldDeleted:
		return "Custom field deleted.", true
	case MsgUpdatedNoLink:
		return singular + " updated.", true
	case MsgPublished:
		return withLink(singular+" published.", `<a href="%s">View %s</a>`, view), true
	case MsgSaved:
		return singular + " saved.", true
	case MsgSubmitted:
		return withLink(singular+" submitted.", `<a target="_blank" href="%s">Preview %s</a>`, preview), true
	case MsgScheduled:
		when := ""
		if item != nil {
			when = item.Date.Format(scheduledDateFormat)
		}
		text := fmt.Sprintf("%s scheduled for: <strong>%s</strong>.", singular, html.EscapeString(when))
		return withLink(text, `<a target="_blank" href="%s">Preview %s</a>`, view), true
	case MsgDraftUpdated:
		return withLink(singular+" draft updated.", `<a target="_blank" href="%s">Preview %s</a>`, preview), true
	}
	return "", false
}

// BulkMessage returns the notice for count items affected by a bulk action
// of kind. It reports false for unknown kinds and counts below one.
func BulkMessage(ct *config.ContentType, kind string, count int) (string, bool) {
	if count < 1 {
		return "", false
	}
	singular := ct.Names.Singular
	many := formatCount(count) + " " + ct.Names.PluralLower

	var text string
	switch kind {
	case "updated":
		text = plural(singular+" updated.", many+" updated.", count)
	case "locked":
		text = plural(singular+" not updated, somebody is editing it.", many+" not updated, somebody is editing them.", count)
	case "deleted":
		text = plural(singular+" permanently deleted.", many+" permanently deleted.", count)
	case "trashed":
		text = plural(singular+" moved to the trash.", many+" moved to the trash.", count)
	case "untrashed":
		text = plural(singular+" restored from the trash.", many+" restored from the trash.", count)
	default:
		return "", false
	}
	return html.EscapeString(text), true
}

// savedMessage picks the message code for an item saved with status.
func savedMessage(status string, wasPublished bool) int {
	switch status {
	case "publish":
		if wasPublished {
			return MsgUpdated
		}
		return MsgPublished
	case "future":
		return MsgScheduled
	case "pending":
		return MsgSubmitted
	case "draft":
		return MsgDraftUpdated
	}
	return MsgSaved
}
