package voice

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Voice response markup for the Africa's Talking voice API.
// The documents are tiny fixed-shape fragments; they are assembled directly
// rather than going through struct marshalling, which cannot express the
// nested <GetDigits><Say> ordering the API wants.

type GatherOptions struct {
	Timeout     int
	NumDigits   int
	FinishOnKey string
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Say renders a spoken text element.
func Say(text string) string {
	return "<Say>" + escape(text) + "</Say>"
}

// Hangup renders a hangup directive.
func Hangup() string {
	return "<Hangup/>"
}

// Gather renders a prompt followed by a digit-collection directive pointing
// the provider back at callbackURL. A zero Timeout defaults to 6 seconds and
// a zero NumDigits to a single digit; NumDigits < 0 means unlimited (used
// with a FinishOnKey terminator).
func Gather(callbackURL, text string, opts ...GatherOptions) string {
	var o GatherOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Timeout == 0 {
		o.Timeout = 6
	}
	if o.NumDigits == 0 {
		o.NumDigits = 1
	}

	var b strings.Builder
	b.WriteString(Say(text))
	fmt.Fprintf(&b, `<GetDigits timeout="%d"`, o.Timeout)
	if o.FinishOnKey != "" {
		fmt.Fprintf(&b, ` finishOnKey="%s"`, escape(o.FinishOnKey))
	}
	if o.NumDigits > 0 {
		fmt.Fprintf(&b, ` numDigits="%d"`, o.NumDigits)
	}
	fmt.Fprintf(&b, ` callbackUrl="%s">`, escape(callbackURL))
	b.WriteString(Say("Enter your choice now."))
	b.WriteString("</GetDigits>")
	return b.String()
}

// Document wraps rendered elements into a complete voice response.
func Document(inner string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><Response>` + inner + `</Response>`
}
