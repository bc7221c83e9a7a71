package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"guessr/middleware"
	"guessr/services"
)

type errorMapping struct {
	target  error
	status  int
	message func(detail string) string
}

func fixed(msg string) func(string) string {
	return func(string) string { return msg }
}

var errorMappings = []errorMapping{
	{services.ErrInvalidCredentials, http.StatusUnauthorized, fixed("Invalid credentials")},
	{services.ErrUnauthenticated, http.StatusUnauthorized, fixed("Authentication credentials were not provided.")},
	{services.ErrEmailTaken, http.StatusConflict, fixed("A user with this email already exists")},
	{services.ErrRoundClosed, http.StatusConflict, fixed("Game round is already completed")},
	{services.ErrAlreadyAnswered, http.StatusConflict, fixed("This question has already been answered")},
	{services.ErrNoEvents, http.StatusNotFound, fixed("No events available")},
	{services.ErrNotFound, http.StatusNotFound, func(d string) string {
		if d == "" {
			return "Not found"
		}
		return upperFirst(d) + " not found"
	}},
	{services.ErrValidation, http.StatusBadRequest, func(d string) string {
		if d == "" {
			return "Invalid request"
		}
		return upperFirst(d)
	}},
}

// detail is what a wrapped sentinel adds after "<sentinel>: ".
func detail(err, target error) string {
	msg := err.Error()
	prefix := target.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return ""
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// respondError writes the status and message for a service error. Errors
// outside the known sentinels are logged and reported as 500.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{"error": m.message(detail(err, m.target))})
			return
		}
	}
	middleware.Logger(c).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func currentUser(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	id, ok := v.(uint)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return id, true
}
