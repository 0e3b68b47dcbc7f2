// Package commit parses conventional commit messages.
package commit

import (
	"regexp"
	"strings"
)

// Commit is a parsed commit message
type Commit struct {
	Header          string
	Type            string
	Scope           string
	Subject         string
	Body            string
	BreakingChanges []string
	Deprecations    []string
	IsFixup         bool
	IsSquash        bool
	IsRevert        bool
}

var (
	headerPattern   = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?(!)?:\s*(.+)$`)
	fixupPattern    = regexp.MustCompile(`^fixup! `)
	squashPattern   = regexp.MustCompile(`^squash! `)
	revertPattern   = regexp.MustCompile(`^(?:revert:?\s*"?|Revert ")`)
	autosquashTrims = []*regexp.Regexp{fixupPattern, squashPattern}
	notePattern     = regexp.MustCompile(`^(BREAKING[ -]CHANGE|DEPRECATED):\s*(.*)$`)
)

// Parse parses a full commit message. Messages that do not follow the
// conventional header format yield a Commit with an empty Type.
func Parse(message string) Commit {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	header, rest, _ := strings.Cut(strings.TrimSpace(message), "\n")

	c := Commit{
		Header:   header,
		IsFixup:  fixupPattern.MatchString(header),
		IsSquash: squashPattern.MatchString(header),
		IsRevert: revertPattern.MatchString(header),
	}

	unprefixed := header
	for _, p := range autosquashTrims {
		unprefixed = p.ReplaceAllString(unprefixed, "")
	}
	breakingMarker := false
	if m := headerPattern.FindStringSubmatch(unprefixed); m != nil {
		c.Type = m[1]
		c.Scope = m[2]
		breakingMarker = m[3] == "!"
		c.Subject = m[4]
	}

	body, notes := splitNotes(rest)
	c.Body = body
	for _, note := range notes {
		switch note.kind {
		case "DEPRECATED":
			c.Deprecations = append(c.Deprecations, note.text)
		default:
			c.BreakingChanges = append(c.BreakingChanges, note.text)
		}
	}
	if breakingMarker && len(c.BreakingChanges) == 0 {
		c.BreakingChanges = append(c.BreakingChanges, c.Subject)
	}
	return c
}

type note struct {
	kind string
	text string
}

// splitNotes separates the free-form body from BREAKING CHANGE and
// DEPRECATED notes. A note extends until the next note keyword.
func splitNotes(rest string) (string, []note) {
	var body []string
	var notes []note
	current := -1
	for _, line := range strings.Split(rest, "\n") {
		if m := notePattern.FindStringSubmatch(line); m != nil {
			kind := m[1]
			if strings.HasPrefix(kind, "BREAKING") {
				kind = "BREAKING CHANGE"
			}
			notes = append(notes, note{kind: kind, text: m[2]})
			current = len(notes) - 1
			continue
		}
		if current >= 0 {
			notes[current].text += "\n" + line
			continue
		}
		body = append(body, line)
	}
	for i := range notes {
		notes[i].text = strings.TrimSpace(notes[i].text)
	}
	return strings.TrimSpace(strings.Join(body, "\n")), notes
}
