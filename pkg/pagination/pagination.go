package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page window parsed from the request query
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page/limit from the query string and clamps them into range.
// Anything unparsable or out of range falls back to the defaults, so a
// handler never sees a zero or runaway window.
func Parse(c *gin.Context) Params {
	return New(atoiDefault(c.Query("page"), DefaultPage), atoiDefault(c.Query("limit"), DefaultLimit))
}

// New clamps raw page/limit values into a usable window
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Pages returns how many pages a total row count spans at this limit
func (p Params) Pages(total int64) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
