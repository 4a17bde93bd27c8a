package emailcheck

import (
	"context"
	"strings"

	"github.com/newsreach/contact-discovery/internal/model"
)

// Classifier is the external email-type capability consumed by the
// validator. Implementations tag an address as personal, department,
// generic, alias or unknown.
type Classifier interface {
	ClassifyEmail(ctx context.Context, email string) (model.EmailClassification, error)
}

var genericLocalParts = map[string]bool{
	"info": true, "contact": true, "hello": true, "admin": true,
	"office": true, "mail": true, "enquiries": true, "inquiries": true,
	"webmaster": true, "noreply": true, "no-reply": true,
}

var departmentLocalParts = map[string]bool{
	"press": true, "news": true, "newsroom": true, "editor": true,
	"editorial": true, "tips": true, "sales": true, "support": true,
	"marketing": true, "hr": true, "careers": true,
}

// HeuristicClassifier is the built-in classifier used when no external
// service is configured. It works purely off local-part patterns.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier { return &HeuristicClassifier{} }

func (c *HeuristicClassifier) ClassifyEmail(_ context.Context, email string) (model.EmailClassification, error) {
	local, domain, ok := splitEmail(strings.ToLower(strings.TrimSpace(email)))
	if !ok {
		return model.EmailClassification{Type: model.EmailTypeUnknown, Confidence: 0.2}, nil
	}

	switch {
	case genericLocalParts[local]:
		return model.EmailClassification{
			Type:        model.EmailTypeGeneric,
			Confidence:  0.9,
			Suggestions: []string{"Look for a named contact at " + domain + " instead of a shared inbox"},
		}, nil
	case departmentLocalParts[local]:
		return model.EmailClassification{
			Type:        model.EmailTypeDepartment,
			Confidence:  0.85,
			Suggestions: []string{"Try firstname.lastname@" + domain + " for a direct contact"},
		}, nil
	case strings.Contains(local, "+"):
		return model.EmailClassification{Type: model.EmailTypeAlias, Confidence: 0.8}, nil
	case strings.Contains(local, ".") || strings.Contains(local, "_"):
		// firstname.lastname style
		return model.EmailClassification{Type: model.EmailTypePersonal, Confidence: 0.8}, nil
	case isAlpha(local) && len(local) >= 3:
		return model.EmailClassification{Type: model.EmailTypePersonal, Confidence: 0.6}, nil
	}
	return model.EmailClassification{Type: model.EmailTypeUnknown, Confidence: 0.3}, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}
