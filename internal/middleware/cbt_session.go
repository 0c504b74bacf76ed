package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/cbt-backend/internal/model"
	"github.com/scholaris/cbt-backend/internal/response"
	"github.com/scholaris/cbt-backend/internal/service"
)

const (
	// ContextKeyExamTaker is the Gin context key for the resolved exam taker.
	ContextKeyExamTaker = "exam_taker"

	// SessionScheme is the Authorization scheme for CBT session tokens.
	SessionScheme = "CBT-Session"

	// SessionHeader is the fallback header for clients that cannot set
	// Authorization.
	SessionHeader = "X-CBT-Session"

	// SessionCookie is the cookie fallback for browser clients.
	SessionCookie = "cbt_session_token"
)

// ResolveCBTSession resolves a session token into an exam taker when one is
// present and valid. Resolution failure is not an error here; the request
// continues anonymously and route guards decide what that means.
func ResolveCBTSession(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractSessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		sess, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextKeyExamTaker, &model.ExamTaker{
			StudentID:       sess.StudentID,
			AdmissionNumber: sess.AdmissionNumber,
			SessionToken:    token,
		})
		c.Next()
	}
}

// RequireCBTSession rejects requests that did not resolve to an exam taker.
// Mount after ResolveCBTSession.
func RequireCBTSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetExamTaker(c) == nil {
			if extractSessionToken(c) == "" {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionRequired)
			} else {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalid)
			}
			return
		}
		c.Next()
	}
}

// GetExamTaker retrieves the resolved exam taker from the Gin context, or nil
// for anonymous requests.
func GetExamTaker(c *gin.Context) *model.ExamTaker {
	val, exists := c.Get(ContextKeyExamTaker)
	if !exists {
		return nil
	}
	taker, ok := val.(*model.ExamTaker)
	if !ok {
		return nil
	}
	return taker
}

// extractSessionToken pulls the session token from, in precedence order, the
// Authorization header, the X-CBT-Session header and the session cookie.
func extractSessionToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], SessionScheme) {
			return strings.TrimSpace(parts[1])
		}
	}

	if token := c.GetHeader(SessionHeader); token != "" {
		return token
	}

	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	return ""
}
