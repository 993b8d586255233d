package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParseDefaults(t *testing.T) {
	p := parseQuery(t, "")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestParseClampsOutOfRange(t *testing.T) {
	p := parseQuery(t, "page=-3&limit=900")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)

	p = parseQuery(t, "limit=0")
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestParseFallsBackOnGarbage(t *testing.T) {
	p := parseQuery(t, "page=abc&limit=xyz")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestOffsetFollowsWindow(t *testing.T) {
	p := parseQuery(t, "page=3&limit=25")
	assert.Equal(t, 50, p.Offset)
}

func TestPages(t *testing.T) {
	p := New(1, 20)
	assert.Equal(t, 0, p.Pages(0))
	assert.Equal(t, 1, p.Pages(1))
	assert.Equal(t, 1, p.Pages(20))
	assert.Equal(t, 2, p.Pages(21))
	assert.Equal(t, 5, p.Pages(100))
}
