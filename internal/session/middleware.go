package session

import (
	"github.com/gin-gonic/gin"
)

const idKey = "session.id"

// Middleware returns gin middleware that ensures every request carries a live
// session, issuing a new cookie when the request has none or the session
// expired.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(CookieName)
		if err != nil || !store.Valid(id) {
			id = store.NewSession()
			c.SetCookie(CookieName, id, 0, "/", "", false, true)
		}
		c.Set(idKey, id)
		c.Next()
	}
}

// ID returns the request's session id set by Middleware.
func ID(c *gin.Context) string {
	return c.GetString(idKey)
}
