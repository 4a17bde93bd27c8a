// Package extract pulls contact fragments out of fetched page content.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fragment is one raw contact candidate extracted from a page. The email is
// unvalidated at this point.
type Fragment struct {
	Name         string
	Email        string
	Role         string
	Organization string
	Confidence   float64
}

// ContactExtractor turns page content into contact fragments.
type ContactExtractor interface {
	ExtractContacts(ctx context.Context, content string) ([]Fragment, error)
}

var (
	emailRx = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	roleRx  = regexp.MustCompile(`(?i)\b(editor(-in-chief)?|reporter|journalist|correspondent|columnist|staff writer|writer|producer|critic|anchor|contributor)\b`)
	nameRx  = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})\b`)
)

// roleWindow is how far around an email match we look for a role or name.
const roleWindow = 160

// HTMLExtractor parses HTML (or degrades to plain text) and applies
// mailto/regex heuristics.
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

func (x *HTMLExtractor) ExtractContacts(_ context.Context, content string) ([]Fragment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty content")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	org := pageOrganization(doc)
	byEmail := make(map[string]*Fragment)
	var order []string

	add := func(f Fragment) {
		key := strings.ToLower(f.Email)
		if existing, ok := byEmail[key]; ok {
			// Keep the richer fragment for the same address.
			if f.Confidence > existing.Confidence {
				if f.Name == "" {
					f.Name = existing.Name
				}
				if f.Role == "" {
					f.Role = existing.Role
				}
				*existing = f
			}
			return
		}
		byEmail[key] = &f
		order = append(order, key)
	}

	// mailto links carry the strongest signal: the anchor text is usually
	// the contact's name.
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		email := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(email, '?'); i >= 0 {
			email = email[:i]
		}
		email = strings.TrimSpace(email)
		if !emailRx.MatchString(email) {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if strings.EqualFold(name, email) || emailRx.MatchString(name) {
			name = ""
		}
		add(Fragment{
			Name:         name,
			Email:        email,
			Role:         roleNear(sel.Parent().Text()),
			Organization: org,
			Confidence:   0.8,
		})
	})

	// Regex sweep over the visible text for addresses outside mailto links.
	text := doc.Text()
	for _, loc := range emailRx.FindAllStringIndex(text, -1) {
		email := text[loc[0]:loc[1]]
		window := contextWindow(text, loc[0], loc[1])
		add(Fragment{
			Name:         nameNear(window, email),
			Email:        email,
			Role:         roleNear(window),
			Organization: org,
			Confidence:   0.5,
		})
	}

	frags := make([]Fragment, 0, len(order))
	for _, key := range order {
		frags = append(frags, *byEmail[key])
	}
	return frags, nil
}

func pageOrganization(doc *goquery.Document) string {
	if site, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok && strings.TrimSpace(site) != "" {
		return strings.TrimSpace(site)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func contextWindow(text string, start, end int) string {
	lo := start - roleWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + roleWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func roleNear(window string) string {
	if m := roleRx.FindString(window); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

// nameNear prefers a candidate name that shares a token with the email's
// local part; failing that, the first capitalized name in the window.
func nameNear(window, email string) string {
	matches := nameRx.FindAllString(window, -1)
	if len(matches) == 0 {
		return ""
	}
	lowerEmail := strings.ToLower(email)
	for _, m := range matches {
		if strings.Contains(lowerEmail, strings.ToLower(strings.Fields(m)[0])) {
			return m
		}
	}
	return matches[0]
}
