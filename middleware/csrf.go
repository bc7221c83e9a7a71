package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CSRFCookie    = "csrftoken"
	CSRFHeader    = "X-CSRFToken"
	SessionCookie = "sessionid"

	csrfMaxAge = 365 * 24 * 60 * 60
)

const csrfFailed = "CSRF Failed: CSRF token missing or incorrect."

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// CSRF issues a csrftoken cookie and, for unsafe requests authenticated by
// the session cookie, requires the X-CSRFToken header to echo it.
// Bearer-token requests carry no ambient credentials and are not checked.
func CSRF(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFCookie)
		hadToken := err == nil && token != ""
		if !hadToken {
			token = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CSRFCookie, token, csrfMaxAge, "/", "", secure, false)
		}

		if !safeMethod(c.Request.Method) {
			if _, err := c.Cookie(SessionCookie); err == nil {
				header := c.GetHeader(CSRFHeader)
				if !hadToken || subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1 {
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": csrfFailed})
					return
				}
			}
		}

		c.Next()
	}
}
