package activity

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"id", "kind", "title", "description", "actor", "tags", "created_at", "read", "archived"}

// WriteCSV serialises items as RFC 4180 CSV. Tags are joined with ";".
func WriteCSV(w io.Writer, items []Item) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{
			item.ID,
			string(item.Kind),
			item.Title,
			item.Description,
			item.Actor,
			strings.Join(item.Tags, ";"),
			item.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(item.Read),
			strconv.FormatBool(item.Archived),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
