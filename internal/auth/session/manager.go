package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/confeitaria/internal/config"
)

const (
	DefaultCookieName = "_sid"
	CartCookieName    = "cart_id"
)

// Manager owns the login cookie and the anonymous cart cookie.
type Manager struct {
	cookieName string
	secure     bool
	cartTTL    time.Duration
}

func NewManager(cfg config.Config) *Manager {
	cartTTL := cfg.Redis.CartTTL
	if cartTTL <= 0 {
		cartTTL = 30 * 24 * time.Hour
	}
	return &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.AuthCookieSecure,
		cartTTL:    cartTTL,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	return readCookie(c, m.cookieName)
}

func (m *Manager) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	m.write(c, m.cookieName, value, maxAge)
}

func (m *Manager) Clear(c *gin.Context) {
	m.write(c, m.cookieName, "", -1)
}

// ReadCartID returns the raw cart cookie. Callers validate the format.
func (m *Manager) ReadCartID(c *gin.Context) (string, bool) {
	return readCookie(c, CartCookieName)
}

// SetCartID refreshes the cart cookie so an active cart never expires
// before its stored lines.
func (m *Manager) SetCartID(c *gin.Context, cartID string) {
	m.write(c, CartCookieName, cartID, int(m.cartTTL.Seconds()))
}

func (m *Manager) write(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", m.secure, true)
}

func readCookie(c *gin.Context, name string) (string, bool) {
	value, err := c.Cookie(name)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
