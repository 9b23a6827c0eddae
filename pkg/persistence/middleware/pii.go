package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
)

// Mask replaces the values of sensitive contexts.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of contexts whose
// name matches one of the patterns, in nested maps too. Explicit absences stay
// absences. Masked values are lost for the next turns.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, conversationID string, session domain.Session) error {
	// Session.Clone copies the map but not nested values.
	masked := session.Clone()
	masked.Contexts = maskMap(session.Contexts, m.patterns)
	return m.next.Save(ctx, conversationID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, conversationID string) (domain.Session, error) {
	return m.next.Load(ctx, conversationID)
}

func (m *piiMiddleware) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap returns a masked copy of m, leaving m untouched.
func maskMap(m map[string]any, patterns []*regexp.Regexp) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case v != nil && matches(k, patterns):
			out[k] = Mask
		default:
			if sub, ok := v.(map[string]any); ok {
				out[k] = maskMap(sub, patterns)
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
