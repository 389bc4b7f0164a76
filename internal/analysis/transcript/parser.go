// Package transcript turns free-form generated meeting text into speaker-tagged utterances.
package transcript

import (
	"regexp"
	"strings"

	"github.com/kaigi-sim/backend/internal/model/meeting"
)

var (
	// speaker（role）：text, ASCII or full-width brackets and colon.
	speakerWithRole = regexp.MustCompile(`^(.*?)\s?[（(](.*?)[)）]\s*[：:]\s*(.*)$`)
	// speaker：text, speaker may not contain brackets or colons.
	speakerOnly = regexp.MustCompile(`^([^（(:：]+?)\s*[：:]\s*(.*)$`)
)

// Report is the outcome of one parse pass.
type Report struct {
	Utterances []meeting.Utterance
	// Discarded holds non-blank lines that matched no speaker pattern while no utterance was open.
	Discarded []string
}

// Parse converts text into utterances in input order. It never fails: lines it
// cannot attribute are appended to the open utterance or dropped.
func Parse(text string, participants []meeting.Participant) []meeting.Utterance {
	return ParseReport(text, participants).Utterances
}

// ParseReport is Parse plus the list of dropped lines.
func ParseReport(text string, participants []meeting.Participant) Report {
	roles := make(map[string]string, len(participants))
	for _, p := range participants {
		roles[p.Name] = p.Role
	}

	var report Report
	open := -1 // index of the utterance continuation lines attach to

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			open = -1
			continue
		}

		u, ok := matchLine(line, participants, roles)
		switch {
		case ok:
			report.Utterances = append(report.Utterances, u)
			open = len(report.Utterances) - 1
		case open >= 0:
			cur := &report.Utterances[open]
			if cur.Text != "" {
				cur.Text += "\n"
			}
			cur.Text += line
		default:
			report.Discarded = append(report.Discarded, line)
		}
	}
	return report
}

func matchLine(line string, participants []meeting.Participant, roles map[string]string) (meeting.Utterance, bool) {
	if m := speakerWithRole.FindStringSubmatch(line); m != nil {
		speaker := strings.TrimSpace(m[1])
		role := strings.TrimSpace(m[2])
		if role == "" {
			role = roles[speaker]
		}
		return meeting.Utterance{Speaker: speaker, Role: role, Text: strings.TrimSpace(m[3])}, true
	}

	if m := speakerOnly.FindStringSubmatch(line); m != nil {
		speaker := strings.TrimSpace(m[1])
		p, ok := findParticipant(participants, speaker)
		if !ok {
			return meeting.Utterance{}, false
		}
		return meeting.Utterance{Speaker: speaker, Role: strings.TrimSpace(p.Role), Text: strings.TrimSpace(m[2])}, true
	}

	return meeting.Utterance{}, false
}

// findParticipant returns the first participant whose name equals speaker or prefixes it.
func findParticipant(participants []meeting.Participant, speaker string) (meeting.Participant, bool) {
	for _, p := range participants {
		if p.Name == "" {
			continue
		}
		if p.Name == speaker || strings.HasPrefix(speaker, p.Name) {
			return p, true
		}
	}
	return meeting.Participant{}, false
}
