package meeting

import "strings"

// Utterance is one attributed unit of generated dialogue.
type Utterance struct {
	Speaker string `json:"speaker"`
	Role    string `json:"role"`
	Text    string `json:"text"`
}

// Line renders the utterance as "speaker: text".
func (u Utterance) Line() string {
	return u.Speaker + ": " + u.Text
}

// FlattenLog joins utterances as "speaker: text" lines separated by newlines.
func FlattenLog(utterances []Utterance) string {
	lines := make([]string, 0, len(utterances))
	for _, u := range utterances {
		lines = append(lines, u.Line())
	}
	return strings.Join(lines, "\n")
}
