package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/talenthubhq/talenthub/authz"
)

// Query parameters with listing semantics; everything else is treated as a
// field filter and validated against the entity's allow-list by the engine.
var reservedParams = map[string]bool{
	"search": true, "sort_by": true, "sort_order": true, "offset": true, "limit": true,
}

// parseListRequest builds an untrusted ListRequest from the query string.
// Numeric garbage in offset/limit is passed through as-is semantics-wise: a
// non-number becomes a validation failure in the engine via -1.
func parseListRequest(c *gin.Context) authz.ListRequest {
	req := authz.ListRequest{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	req.Offset = parseIntParam(c, "offset")
	req.Limit = parseIntParam(c, "limit")

	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		if req.Filters == nil {
			req.Filters = make(map[string]string)
		}
		req.Filters[key] = values[0]
	}
	return req
}

func parseIntParam(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
