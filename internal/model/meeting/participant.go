package meeting

import (
	"regexp"
	"strings"
)

// Participant is one attendee of the simulated meeting. Role may be empty.
type Participant struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// participantLine accepts both ASCII and full-width brackets: "name (role)", "name（role）".
var participantLine = regexp.MustCompile(`^(.*?)\s?[（(](.*?)[)）]$`)

// ParseParticipants parses the free-text participant field, one participant per line.
// Lines without a bracketed role become participants with an empty role.
func ParseParticipants(text string) []Participant {
	lines := strings.Split(text, "\n")
	participants := make([]Participant, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := participantLine.FindStringSubmatch(line); m != nil {
			participants = append(participants, Participant{
				Name: strings.TrimSpace(m[1]),
				Role: strings.TrimSpace(m[2]),
			})
			continue
		}
		participants = append(participants, Participant{Name: line})
	}
	return participants
}

// FormatParticipants renders participants back into the textbox format.
func FormatParticipants(participants []Participant) string {
	var b strings.Builder
	for i, p := range participants {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Name)
		if p.Role != "" {
			b.WriteString("（")
			b.WriteString(p.Role)
			b.WriteString("）")
		}
	}
	return b.String()
}

// DuplicateNames returns every participant name that occurs more than once, in first-seen order.
func DuplicateNames(participants []Participant) []string {
	seen := make(map[string]int, len(participants))
	var dups []string
	for _, p := range participants {
		seen[p.Name]++
		if seen[p.Name] == 2 {
			dups = append(dups, p.Name)
		}
	}
	return dups
}
