package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants & globals                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	SessionName = "plura-session"

	isAuthKey  = "is_authenticated"
	subjectKey = "subject"
	userName   = "user_name"
	userEmail  = "user_email"
	userAvatar = "user_avatar"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Caller helper                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Caller is the identity-provider view of the signed-in principal: the
// subject plus the profile claims delivered at sign-in. It carries no
// role or agency binding; those live on the user record and are resolved
// per request.
type Caller struct {
	Subject   string
	Name      string
	Email     string
	AvatarURL string
}

type ctxKey string

const currentCallerKey ctxKey = "currentCaller"

// CurrentCaller returns the caller & "found?" flag.
func CurrentCaller(r *http.Request) (*Caller, bool) {
	c, ok := r.Context().Value(currentCallerKey).(*Caller)
	return c, ok
}

// LoadSessionCaller injects the caller into context if they are signed in.
// If the session store has not been initialized yet, it is a no-op.
func LoadSessionCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			c := &Caller{
				Subject:   getString(sess, subjectKey),
				Name:      getString(sess, userName),
				Email:     getString(sess, userEmail),
				AvatarURL: getString(sess, userAvatar),
			}
			r = withCaller(r, c)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a caller in context (set by
// LoadSessionCaller). API callers get a plain 401; there is no HTML
// surface to redirect to.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentCaller(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// SignIn writes the caller into the session cookie.
func SignIn(w http.ResponseWriter, r *http.Request, c Caller) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[subjectKey] = c.Subject
	sess.Values[userName] = c.Name
	sess.Values[userEmail] = c.Email
	sess.Values[userAvatar] = c.AvatarURL
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The `secure` flag controls whether cookies are
// marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies should be Secure + SameSite=None
// (for cross-site use with HTTPS).
// In local dev over http://localhost, use secure=false so cookies are accepted.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}

	// SameSite handling: in prod with Secure cookies, we use None
	// so cookies can be sent in cross-site contexts. In dev, Lax is fine.
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// WithTestCaller injects a caller directly into the request context,
// bypassing the session store. For handler tests only.
func WithTestCaller(r *http.Request, c *Caller) *http.Request {
	return withCaller(r, c)
}

// helpers

func withCaller(r *http.Request, c *Caller) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentCallerKey, c))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
