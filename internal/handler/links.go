package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/forgo/odmapi/internal/odm"
	"github.com/forgo/odmapi/internal/service"
)

// linkHeader renders RFC 5988 pagination links. Each link keeps the request's
// other query parameters and overrides skip and limit. Targets are
// path-relative, so Host and forwarding headers never reach them.
func linkHeader(r *http.Request, query odm.Params, page *service.Page) string {
	base := r.URL.Path
	limit := strconv.Itoa(page.Limit)

	entries := make([]string, 0, len(page.Links))
	for _, l := range page.Links {
		q := query.With(service.ParamSkip, strconv.Itoa(l.Skip)).With(service.ParamLimit, limit)
		entries = append(entries, fmt.Sprintf(`<%s?%s>; rel="%s"`, base, encodeQuery(q), l.Rel))
	}
	return strings.Join(entries, ", ")
}
