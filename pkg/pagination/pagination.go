// Package pagination reads page/limit query parameters the same way on every
// list endpoint. Out-of-range or unparsable values fall back to defaults
// rather than erroring, so a bad query string never fails a list request.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Params is a sanitized page/limit pair. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Parse pulls page and limit from the request's query string and clamps them
// into range.
func Parse(c *gin.Context) Params {
	return Params{
		Page:  atoiOr(c.Query("page"), defaultPage, 1, 0),
		Limit: atoiOr(c.Query("limit"), defaultLimit, 1, maxLimit),
	}
}

// atoiOr parses s, substituting fallback for garbage or values below min and
// capping at max when max is positive.
func atoiOr(s string, fallback, min, max int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < min {
		return fallback
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
