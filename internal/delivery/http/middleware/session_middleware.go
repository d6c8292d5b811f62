package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

const SessionCookieName = "virdan_session"

type SessionMiddleware struct {
	Log    *zap.Logger
	Cookie *securecookie.SecureCookie
	TTL    time.Duration
	Secure bool
}

func NewSessionMiddleware(zap *zap.Logger, cookie *securecookie.SecureCookie, ttl time.Duration, secure bool) *SessionMiddleware {
	return &SessionMiddleware{
		Log:    zap,
		Cookie: cookie,
		TTL:    ttl,
		Secure: secure,
	}
}

// SessionIdOf returns the browsing session id set by Session.
func SessionIdOf(ctx *fiber.Ctx) string {
	sessionId, _ := ctx.Locals("sessionId").(string)
	return sessionId
}

func (middleware *SessionMiddleware) decode(ctx *fiber.Ctx) (string, bool) {
	raw := ctx.Cookies(SessionCookieName)
	if raw == "" {
		return "", false
	}

	var sessionId string
	err := middleware.Cookie.Decode(SessionCookieName, raw, &sessionId)
	if err != nil {
		middleware.Log.Debug("discarding invalid session cookie", zap.Error(err))
		return "", false
	}

	_, err = uuid.Parse(sessionId)
	if err != nil {
		return "", false
	}

	return sessionId, true
}

// Session attaches the browsing session id from the signed cookie, issuing a
// new one when the cookie is missing, tampered with or expired. The cookie is
// refreshed on every request so the TTL slides.
func (middleware *SessionMiddleware) Session() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sessionId, ok := middleware.decode(ctx)
		if !ok {
			sessionId = uuid.NewString()
		}

		encoded, err := middleware.Cookie.Encode(SessionCookieName, sessionId)
		if err != nil {
			return err
		}

		ctx.Cookie(&fiber.Cookie{
			Name:     SessionCookieName,
			Value:    encoded,
			Path:     "/",
			MaxAge:   int(middleware.TTL.Seconds()),
			HTTPOnly: true,
			Secure:   middleware.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		ctx.Locals("sessionId", sessionId)

		return ctx.Next()
	}
}

// Expire clears the session cookie on the response.
func (middleware *SessionMiddleware) Expire(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   middleware.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
