// Package handoff builds the messaging deep link shown to a registrant once
// their registration is stored.
package handoff

import (
	"net/url"
	"strings"
)

const (
	baseURL  = "https://wa.me/"
	greeting = "Hello! I just registered for the event: "
)

// WhatsAppURL returns the wa.me link for channel with a greeting naming the
// event. The channel is not validated.
func WhatsAppURL(channel, eventTitle string) string {
	return baseURL + channel + "?text=" + encodeComponent(greeting+eventTitle)
}

// encodeComponent percent-encodes everything except unreserved characters
// and encodes spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
