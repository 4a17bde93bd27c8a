package enhance

import (
	"fmt"
	"strings"

	"github.com/newsreach/contact-discovery/internal/model"
)

func criteriaContext(c model.SearchCriteria) string {
	var parts []string
	if len(c.Beats) > 0 {
		parts = append(parts, "beats: "+strings.Join(c.Beats, ", "))
	}
	if len(c.Categories) > 0 {
		parts = append(parts, "categories: "+strings.Join(c.Categories, ", "))
	}
	if len(c.Regions) > 0 {
		parts = append(parts, "regions: "+strings.Join(c.Regions, ", "))
	}
	if len(c.OutletTypes) > 0 {
		parts = append(parts, "outlet types: "+strings.Join(c.OutletTypes, ", "))
	}
	if c.DateRange != "" {
		parts = append(parts, "date range: "+c.DateRange)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Context: " + strings.Join(parts, "; ") + "\n"
}

func expansionPrompt(baseQuery string, c model.SearchCriteria) string {
	return fmt.Sprintf(`You are helping find journalist and media contacts.
%sGenerate 5 to 8 alternative phrasings and synonym variants of this search query.
Return only a numbered list, one query per line, no commentary.

Query: %q`, criteriaContext(c), baseQuery)
}

func refinementPrompt(baseQuery string, c model.SearchCriteria) string {
	return fmt.Sprintf(`You are helping find journalist and media contacts.
%sGenerate 3 to 5 narrower, more specific versions of this search query.
Return only a numbered list, one query per line, no commentary.

Query: %q`, criteriaContext(c), baseQuery)
}

func localizationPrompt(baseQuery, locale, localeKind string) string {
	return fmt.Sprintf(`You are helping find journalist and media contacts.
Adapt this search query for the %s %q: generate 3 to 5 locale-appropriate variants,
using local terminology and outlet naming conventions.
Return only a numbered list, one query per line, no commentary.

Query: %q`, localeKind, locale, baseQuery)
}

func diversificationPrompt(baseQuery string, c model.SearchCriteria) string {
	return fmt.Sprintf(`You are helping find journalist and media contacts.
%sGenerate 5 to 8 variants of this search query that approach the topic from
different angles (adjacent beats, related specialties, alternate audiences).
Return only a numbered list, one query per line, no commentary.

Query: %q`, criteriaContext(c), baseQuery)
}
