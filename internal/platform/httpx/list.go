package httpx

import (
	"net/http"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/query"
)

// ListView parses the list query string of r.
func ListView(r *http.Request) (*query.View, error) {
	return query.ParseValues(r.URL.Query())
}

// Page writes a query page. etag fingerprints the collection; combined with
// the raw query it lets clients revalidate with If-None-Match.
func Page[T any](w http.ResponseWriter, r *http.Request, page query.Page[T], etag string) {
	if etag != "" {
		tag := collection.ETag([]byte(etag + "?" + r.URL.RawQuery))
		w.Header().Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	JSON(w, http.StatusOK, page)
}
