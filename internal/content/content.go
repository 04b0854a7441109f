// ABOUTME: Content records as stored by the host: items, terms and images.
// ABOUTME: Field gives columns access to built-in item fields by name.

package content

import (
	"strconv"
	"time"
)

// Item is one stored content item.
type Item struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	AuthorID    int64     `json:"author_id"`
	Parent      int64     `json:"parent,omitempty"`
	MenuOrder   int       `json:"menu_order"`
	GUID        string    `json:"guid"`
	Date        time.Time `json:"date"`
	DateGMT     time.Time `json:"date_gmt"`
	Modified    time.Time `json:"modified"`
	ModifiedGMT time.Time `json:"modified_gmt"`
}

// DateFields are the item fields holding timestamps.
var DateFields = map[string]bool{
	"date":         true,
	"date_gmt":     true,
	"modified":     true,
	"modified_gmt": true,
}

// Time returns a date field by name.
func (it *Item) Time(field string) (time.Time, bool) {
	switch field {
	case "date":
		return it.Date, true
	case "date_gmt":
		return it.DateGMT, true
	case "modified":
		return it.Modified, true
	case "modified_gmt":
		return it.ModifiedGMT, true
	}
	return time.Time{}, false
}

// Field returns a built-in field as text. The second result is false for
// unknown fields.
func (it *Item) Field(name string) (string, bool) {
	switch name {
	case "id":
		return strconv.FormatInt(it.ID, 10), true
	case "type":
		return it.Type, true
	case "slug", "name":
		return it.Slug, true
	case "title":
		return it.Title, true
	case "excerpt":
		return it.Excerpt, true
	case "content":
		return it.Content, true
	case "status":
		return it.Status, true
	case "author":
		return strconv.FormatInt(it.AuthorID, 10), true
	case "parent":
		return strconv.FormatInt(it.Parent, 10), true
	case "menu_order":
		return strconv.Itoa(it.MenuOrder), true
	case "guid":
		return it.GUID, true
	}
	if t, ok := it.Time(name); ok {
		if t.IsZero() {
			return "", true
		}
		return t.Format(time.DateTime), true
	}
	return "", false
}

// Term is one taxonomy term.
type Term struct {
	ID          int64  `json:"id"`
	Taxonomy    string `json:"taxonomy"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Parent      int64  `json:"parent,omitempty"`
}

// Image is a featured image rendition.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// User is an account that authors items.
type User struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

var statusLabels = map[string]string{
	"publish": "Published",
	"future":  "Scheduled",
	"draft":   "Draft",
	"pending": "Pending",
	"private": "Private",
	"trash":   "Trash",
}

// StatusLabel returns the display label of a status, or the status itself.
func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

// Statuses lists the known statuses in display order.
func Statuses() []string {
	return []string{"publish", "future", "draft", "pending", "private", "trash"}
}
