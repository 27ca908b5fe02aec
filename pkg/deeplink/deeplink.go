// Package deeplink resolves incoming return URLs (from the hosted checkout
// page back into the app) to a screen route.
package deeplink

import (
	"net/url"
	"strings"
)

type Screen string

const (
	ScreenHome            Screen = "home"
	ScreenSubscription    Screen = "subscription"
	ScreenDonationSuccess Screen = "donation-success"
	ScreenNone            Screen = ""
)

// Route is where an incoming URL should land.
type Route struct {
	Screen    Screen
	Success   bool   // subscription screen: success=true/false param
	SessionID string // forwarded to the subscription screen on success
}

// Resolve applies the return-URL contract:
//   - session_id present + path containing "subscription"  -> subscription, success=true
//   - session_id present + path containing "donation-success" -> thank-you screen
//   - canceled=true + path containing "subscription" -> subscription, success=false
//   - canceled=true otherwise -> home
//
// Anything else is not a deep link this app handles.
func Resolve(raw string) (Route, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Route{Screen: ScreenNone}, false
	}
	q := u.Query()
	path := u.Path

	if sid := q.Get("session_id"); sid != "" {
		switch {
		case strings.Contains(path, "subscription"):
			return Route{Screen: ScreenSubscription, Success: true, SessionID: sid}, true
		case strings.Contains(path, "donation-success"):
			return Route{Screen: ScreenDonationSuccess, Success: true, SessionID: sid}, true
		}
	}

	if q.Get("canceled") == "true" {
		if strings.Contains(path, "subscription") {
			return Route{Screen: ScreenSubscription, Success: false}, true
		}
		return Route{Screen: ScreenHome, Success: false}, true
	}

	return Route{Screen: ScreenNone}, false
}
