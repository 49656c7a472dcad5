package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func parseQuery(t *testing.T, query string) Params {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	cases := []struct {
		query string
		page  int
		limit int
	}{
		{"", 1, 20},
		{"page=3&limit=50", 3, 50},
		{"page=0&limit=0", 1, 20},
		{"page=-2&limit=-5", 1, 20},
		{"page=abc&limit=xyz", 1, 20},
		{"limit=1000", 1, 100},
	}
	for _, tc := range cases {
		p := parseQuery(t, tc.query)
		if p.Page != tc.page || p.Limit != tc.limit {
			t.Errorf("Parse(%q) = %+v, want page %d limit %d", tc.query, p, tc.page, tc.limit)
		}
	}
}
