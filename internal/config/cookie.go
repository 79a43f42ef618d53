package config

import "net/http"

type CookieSameSite string

const (
	CookieSameSiteNone   CookieSameSite = "None"
	CookieSameSiteLax    CookieSameSite = "Lax"
	CookieSameSiteStrict CookieSameSite = "Strict"
)

type CookieTemplate struct {
	Name     string         `yaml:"name" default:"lucid_session"`
	MaxAge   int            `yaml:"maxAge" default:"86400"`
	Path     string         `yaml:"path" default:"/"`
	Domain   string         `yaml:"domain"`
	Secure   bool           `yaml:"secure" default:"true"`
	HTTPOnly bool           `yaml:"httpOnly" default:"true"`
	SameSite CookieSameSite `yaml:"sameSite" default:"Strict"`
}

func (ct *CookieTemplate) ToCookie(value string) *http.Cookie {
	var sameSite http.SameSite
	switch ct.SameSite {
	case CookieSameSiteNone:
		sameSite = http.SameSiteNoneMode
	case CookieSameSiteLax:
		sameSite = http.SameSiteLaxMode
	case CookieSameSiteStrict:
		sameSite = http.SameSiteStrictMode
	}

	return &http.Cookie{
		Name:     ct.Name,
		Value:    value,
		MaxAge:   ct.MaxAge,
		Path:     ct.Path,
		Domain:   ct.Domain,
		Secure:   ct.Secure,
		HttpOnly: ct.HTTPOnly,
		SameSite: sameSite,
	}
}

// ToExpiredCookie builds the clearing counterpart of the template, used
// on logout.
func (ct *CookieTemplate) ToExpiredCookie() *http.Cookie {
	cookie := ct.ToCookie("")
	cookie.MaxAge = -1

	return cookie
}
