// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"html"
	"regexp"
	"strings"
)

// GuestFallback is shown wherever a guest name placeholder appears and no
// guest is known.
const GuestFallback = "Family & Friends"

// SubdomainFieldID is the element id that receives the routing key.
const SubdomainFieldID = "subdomain-field"

// Route is the public URL scope of one tenant, e.g. /s/alex-sam/.
type Route struct {
	Prefix string // "/s" or "/preview"
	Key    string // subdomain or template id
}

// Href returns the base URL that relative asset references resolve
// against.
func (r Route) Href() string {
	return strings.TrimSuffix(r.Prefix, "/") + "/" + r.Key + "/"
}

var (
	baseTagRe   = regexp.MustCompile(`(?i)<base[\s/>]`)
	headOpenRe  = regexp.MustCompile(`(?i)<head(?:\s[^>]*)?>`)
	htmlOpenRe  = regexp.MustCompile(`(?i)<html(?:\s[^>]*)?>`)
	commentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	fieldTagRe  = regexp.MustCompile(`(?i)<[a-z][^>]*\sid\s*=\s*(?:(?:"` + SubdomainFieldID + `"|'` + SubdomainFieldID + `')[^>]*|` + SubdomainFieldID + `(?:\s[^>]*)?)>`)
	valueAttrRe = regexp.MustCompile(`(?i)\svalue\s*=`)

	guestCurlyRe  = regexp.MustCompile(`(?i)\{\{\s*guest_name\s*\}\}`)
	guestSquareRe = regexp.MustCompile(`(?i)\[\s*guest_name\s*\]`)

	doctypeRe   = regexp.MustCompile(`(?i)<!doctype[^>]*>`)
	headBlockRe = regexp.MustCompile(`(?is)<head(?:\s[^>]*)?>(.*?)</head\s*>`)
	bodyOpenRe  = regexp.MustCompile(`(?i)<body(?:\s[^>]*)?>`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body\s*>`)
	htmlTagRe   = regexp.MustCompile(`(?i)</?html(?:\s[^>]*)?>`)
)

// Transform rewrites an invitation's index.html for serving under route:
// it adds a <base> tag, fills the subdomain field and substitutes guest
// name placeholders. Running it on its own output changes nothing.
func Transform(doc string, route Route, guestName string) string {
	doc = injectBase(doc, route.Href())
	doc = injectRoutingKey(doc, route.Key)
	return substituteGuest(doc, guestName)
}

func injectBase(doc, href string) string {
	// Tags are looked up in a copy with comments blanked out, so offsets
	// still line up with doc.
	visible := commentRe.ReplaceAllStringFunc(doc, func(c string) string {
		return strings.Repeat(" ", len(c))
	})
	if baseTagRe.MatchString(visible) {
		return doc
	}
	tag := `<base href="` + html.EscapeString(href) + `">`

	if loc := headOpenRe.FindStringIndex(visible); loc != nil {
		return doc[:loc[1]] + tag + doc[loc[1]:]
	}
	if loc := htmlOpenRe.FindStringIndex(visible); loc != nil {
		return doc[:loc[1]] + "<head>" + tag + "</head>" + doc[loc[1]:]
	}
	return tag + doc
}

func injectRoutingKey(doc, key string) string {
	return fieldTagRe.ReplaceAllStringFunc(doc, func(tag string) string {
		if valueAttrRe.MatchString(tag) {
			return tag
		}
		attr := ` value="` + html.EscapeString(key) + `"`
		end := len(tag) - 1
		if strings.HasSuffix(tag, "/>") {
			end = len(tag) - 2
			for end > 0 && tag[end-1] == ' ' {
				end--
			}
		}
		return tag[:end] + attr + tag[end:]
	})
}

// cleanGuestName strips characters that could open a tag or close an
// attribute. Other characters, ampersands included, are kept as typed.
func cleanGuestName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

func substituteGuest(doc, guestName string) string {
	name := cleanGuestName(guestName)
	if name == "" {
		name = GuestFallback
	}
	doc = guestCurlyRe.ReplaceAllLiteralString(doc, name)
	return guestSquareRe.ReplaceAllLiteralString(doc, name)
}

// Fragment strips the document wrapper so the markup can be embedded in
// another page. The result is the inner content of <head> followed by the
// inner content of <body>; styles and the base tag stay in effect.
func Fragment(doc string) string {
	doc = doctypeRe.ReplaceAllString(doc, "")

	var head string
	if m := headBlockRe.FindStringSubmatchIndex(doc); m != nil {
		head = doc[m[2]:m[3]]
		doc = doc[:m[0]] + doc[m[1]:]
	}

	body := doc
	if loc := bodyOpenRe.FindStringIndex(body); loc != nil {
		body = body[loc[1]:]
		if ends := bodyCloseRe.FindAllStringIndex(body, -1); len(ends) > 0 {
			body = body[:ends[len(ends)-1][0]]
		}
	}
	body = htmlTagRe.ReplaceAllString(body, "")

	head = strings.TrimSpace(head)
	body = strings.TrimSpace(body)
	if head == "" {
		return body
	}
	if body == "" {
		return head
	}
	return head + "\n" + body
}
