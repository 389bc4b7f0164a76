package meeting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormData carries the case facts collected by the front-end form.
type FormData struct {
	BasicInfo         string        `json:"basicInfo"`
	AssessmentSummary string        `json:"assessmentSummary"`
	ObservationPoints string        `json:"observationPoints"`
	Participants      []Participant `json:"participants"`
	Settings          *Settings     `json:"settings,omitempty"`
}

// Settings tunes the generated dialogue. All fields are optional.
type Settings struct {
	CustomRoles     RoleDescriptions `json:"customRoles,omitempty"`
	SpeechLength    Level            `json:"speechLength,omitempty"`
	Assessments     []string         `json:"assessments,omitempty"`
	GoalPath        string           `json:"goalPath,omitempty"`
	ProgressPattern string           `json:"progressPattern,omitempty"`
	Expertise       string           `json:"expertise,omitempty"`
}

// RoleDescription maps a role key to the perspective the participant should speak from.
type RoleDescription struct {
	Role        string `json:"role" yaml:"role"`
	Description string `json:"description" yaml:"description"`
}

// RoleDescriptions keeps declaration order of a JSON object such as
// {"本人": "...", "保護者": "..."} so the first matching key is stable.
type RoleDescriptions []RoleDescription

// UnmarshalJSON decodes an object while preserving key order.
func (r *RoleDescriptions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("customRoles: expected object, got %v", tok)
	}

	var out RoleDescriptions
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("customRoles: unexpected key %v", keyTok)
		}
		var desc string
		if err := dec.Decode(&desc); err != nil {
			return fmt.Errorf("customRoles[%s]: %w", key, err)
		}
		out = append(out, RoleDescription{Role: key, Description: desc})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// MarshalJSON encodes the descriptions back into an ordered object.
func (r RoleDescriptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Role)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.Description)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Level is a 1..5 scale that the form may send as a number or a numeric string.
type Level int

// UnmarshalJSON accepts 3, "3" and "".
func (l *Level) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*l = 0
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid level %q: %w", raw, err)
	}
	*l = Level(v)
	return nil
}

// ValidationError reports required fields that are missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "必要な情報が不足しています: " + strings.Join(e.Fields, ", ")
}

// Validate checks the required case fields. Duplicate participant names are
// rejected because the transcript parser could not tell their roles apart.
func (f FormData) Validate() error {
	var fields []string
	if strings.TrimSpace(f.BasicInfo) == "" {
		fields = append(fields, "basicInfo")
	}
	if strings.TrimSpace(f.AssessmentSummary) == "" {
		fields = append(fields, "assessmentSummary")
	}
	named := 0
	for _, p := range f.Participants {
		if strings.TrimSpace(p.Name) != "" {
			named++
		}
	}
	if named == 0 {
		fields = append(fields, "participants")
	}
	for _, name := range DuplicateNames(f.Participants) {
		fields = append(fields, fmt.Sprintf("participants[%s]: duplicate name", name))
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
