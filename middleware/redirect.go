package middleware

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/guard"
)

// PendingRedirect is the navigator used outside of a request, e.g. when a
// background refresh ends the session. The next request is sent to the
// stored path exactly once.
type PendingRedirect struct {
	target atomic.Pointer[string]
}

func (p *PendingRedirect) Replace(path string) {
	p.target.Store(&path)
}

// Pending reports the stored target without consuming it.
func (p *PendingRedirect) Pending() (string, bool) {
	t := p.target.Load()
	if t == nil {
		return "", false
	}
	return *t, true
}

// Middleware consumes a pending redirect. Page requests are redirected
// with 303; API requests get 401 so scripts can navigate themselves. A
// redirect left over from an ended session is dropped once checker
// reports a new one.
func (p *PendingRedirect) Middleware(checker guard.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := p.target.Load()
		if t == nil || c.Request.URL.Path == *t {
			c.Next()
			return
		}
		if checker != nil && checker.IsAuthenticated() {
			p.target.CompareAndSwap(t, nil)
			c.Next()
			return
		}
		if !p.target.CompareAndSwap(t, nil) {
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired", "redirect": *t})
			return
		}
		c.Redirect(http.StatusSeeOther, *t)
		c.Abort()
	}
}
