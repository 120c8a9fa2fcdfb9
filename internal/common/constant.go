// Package common contains shared constants and sentinel errors used across
// the council site components.
package common

// SessionCookieName is the cookie that carries the signed session token
// between the browser and the site.
const SessionCookieName = "council_session"

// HomePath is the canonical path of the public landing page.
const HomePath = "/"

// LoginPath is where unauthenticated visitors of protected pages are sent.
const LoginPath = "/login"
