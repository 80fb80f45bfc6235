package window

import (
	"errors"
	"strings"

	"github.com/bryanchriswhite/WindowShot/internal/logger"
	"golang.org/x/text/cases"
)

// ErrWindowNotFound is returned when neither resolution pass matches.
var ErrWindowNotFound = errors.New("window not found using any detection method; ensure the window is visible and not minimized")

// MatchPolicy selects how looseMatch compares a candidate to a target.
type MatchPolicy int

const (
	// MatchSubstring accepts a candidate that contains the target.
	MatchSubstring MatchPolicy = iota
	// MatchExactOrSubstring accepts equality or containment with no
	// preference between the two.
	MatchExactOrSubstring
)

// looseMatch compares case-insensitively. An empty target never matches so
// that a missing hint cannot select an arbitrary window.
func looseMatch(candidate, target string, policy MatchPolicy) bool {
	if target == "" || candidate == "" {
		return false
	}
	// A Caser carries state and must not be shared across goroutines.
	fold := cases.Fold()
	c := fold.String(candidate)
	t := fold.String(target)

	switch policy {
	case MatchExactOrSubstring:
		return c == t || strings.Contains(c, t)
	default:
		return strings.Contains(c, t)
	}
}

// Resolve picks exactly one window from the snapshot.
//
// The application-name pass runs first when appHint is non-empty and skips
// only windows confirmed minimized. The title pass then skips windows that
// are minimized or whose state is unknown. Within a pass the first match in
// enumeration order wins.
func Resolve(snap Snapshot, desiredTitle, appHint string) (*Descriptor, bool) {
	log := logger.WithComponent("resolver")

	appHint = strings.TrimSpace(appHint)
	desiredTitle = strings.TrimSpace(desiredTitle)

	for _, w := range snap.Windows {
		log.Debug().
			Uint32("id", w.ID).
			Str("title", w.Title).
			Str("app", w.ApplicationName).
			Stringer("minimized", w.Minimized).
			Msg("Candidate window")
	}

	if appHint != "" {
		for _, w := range snap.Windows {
			if w.Minimized == MinimizedYes {
				continue
			}
			if looseMatch(w.ApplicationName, appHint, MatchSubstring) {
				log.Info().Str("app", w.ApplicationName).Uint32("id", w.ID).Msg("Found window by application name")
				return w, true
			}
		}
	}

	for _, w := range snap.Windows {
		if w.Minimized != MinimizedNo {
			continue
		}
		if looseMatch(w.Title, desiredTitle, MatchExactOrSubstring) {
			log.Info().Str("title", w.Title).Uint32("id", w.ID).Msg("Found window by title")
			return w, true
		}
	}

	log.Warn().
		Str("title", desiredTitle).
		Str("app", appHint).
		Int("candidates", snap.Len()).
		Msg("No matching window found")
	return nil, false
}
