package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// pathID parses a numeric path variable
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pagination reads page and limit query parameters; the service applies
// defaults for missing or zero values
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// pagedResponse is the envelope for paginated listings
type pagedResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}
