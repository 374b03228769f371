package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/guard"
	"github.com/princinho/sahoadmin/models"
	"github.com/rs/zerolog/log"
)

// responseNavigator collects the redirect a mount issues so the handler
// can answer it once the mount settles.
type responseNavigator struct {
	mu     sync.Mutex
	target string
	count  int
}

func (n *responseNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = path
	n.count++
}

func (n *responseNavigator) redirect() (string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target, n.count
}

// RouteGuard protects a console page. Each request mounts the guard for
// the request path and waits for it to settle; a denied mount becomes a
// 303 redirect.
func RouteGuard(g *guard.Guard, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		nav := &responseNavigator{}
		m := g.Mount(c.Request.URL.Path, role, nav)
		defer m.Unmount()

		state, err := m.Wait(c.Request.Context())
		if err != nil {
			c.AbortWithStatus(http.StatusRequestTimeout)
			return
		}

		if state == guard.Denied {
			target, n := nav.redirect()
			if n != 1 {
				log.Warn().Int("redirects", n).Str("path", c.Request.URL.Path).Msg("guard issued unexpected redirects")
			}
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}

		if !m.CanRender() {
			target := g.Target(g.Decide(c.Request.URL.Path, role))
			if target == "" {
				target = g.LoginPath()
			}
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
