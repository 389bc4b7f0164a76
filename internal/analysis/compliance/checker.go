// Package compliance flags generated dialogue that contradicts welfare-service rules.
package compliance

import (
	"strings"
)

// Severity grades a violation.
type Severity string

const (
	High   Severity = "high"
	Medium Severity = "medium"
)

// Kind names the rule a violation breaks.
type Kind string

const (
	ServiceRestriction Kind = "serviceRestriction"
	AgeRestriction     Kind = "ageRestriction"
	UsagePeriod        Kind = "usagePeriod"
)

// Violation is one detected rule breach.
type Violation struct {
	Type     Kind     `json:"type"`
	Message  string   `json:"message"`
	Pattern  string   `json:"pattern"`
	Severity Severity `json:"severity"`
}

// Report bundles violations with the warning text shown to the user.
type Report struct {
	Violations []Violation `json:"violations"`
	Warning    string      `json:"warning,omitempty"`
}

type rule struct {
	kind     Kind
	severity Severity
	message  string
	// applies reports whether the text discusses the services the rule is about.
	applies  func(text string) bool
	patterns []string
}

var (
	typeBTerms      = []string{"b型", "継続支援"}
	transitionTerms = []string{"移行支援", "移行"}
)

var rules = []rule{
	{
		kind:     ServiceRestriction,
		severity: High,
		message:  "B型と移行支援の同時利用は認められていません",
		applies: func(text string) bool {
			return containsAny(text, typeBTerms) && containsAny(text, transitionTerms)
		},
		patterns: []string{"隔日", "併用", "同時利用", "並行", "組み合わせ", "b型も移行も", "移行もb型も", "どちらも利用"},
	},
	{
		kind:     AgeRestriction,
		severity: High,
		message:  "18歳未満はB型事業所を利用できません",
		applies: func(text string) bool {
			return containsAny(text, typeBTerms)
		},
		patterns: []string{"17歳", "16歳", "15歳", "14歳", "高校生でb型", "未成年でb型"},
	},
	{
		kind:     UsagePeriod,
		severity: Medium,
		message:  "移行支援の利用期間は原則2年（延長1年）です",
		applies: func(text string) bool {
			return containsAny(text, transitionTerms)
		},
		patterns: []string{"3年", "4年", "5年", "無期限", "期限なし"},
	},
}

// Check scans text and reports at most one violation per rule, naming the first pattern found.
func Check(text string) []Violation {
	normalized := strings.ToLower(text)
	violations := []Violation{}
	for _, r := range rules {
		if !r.applies(normalized) {
			continue
		}
		for _, p := range r.patterns {
			if strings.Contains(normalized, p) {
				violations = append(violations, Violation{
					Type:     r.kind,
					Message:  r.message,
					Pattern:  p,
					Severity: r.severity,
				})
				break
			}
		}
	}
	return violations
}

// Warning renders the user-facing warning, or "" when there are no violations.
func Warning(violations []Violation) string {
	if len(violations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("⚠️ 制度上の問題が検出されました:\n\n")

	if high := filter(violations, High); len(high) > 0 {
		b.WriteString("【重要な問題】\n")
		for _, v := range high {
			b.WriteString("- " + v.Message + "\n")
		}
		b.WriteString("\n")
	}
	if medium := filter(violations, Medium); len(medium) > 0 {
		b.WriteString("【注意事項】\n")
		for _, v := range medium {
			b.WriteString("- " + v.Message + "\n")
		}
	}

	b.WriteString("\n※ この内容は参考情報として生成されました。実際の制度運用については、最新の法令・通知を必ず確認してください。")
	return b.String()
}

// Validate runs Check and Warning together.
func Validate(text string) Report {
	violations := Check(text)
	return Report{Violations: violations, Warning: Warning(violations)}
}

func filter(violations []Violation, severity Severity) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Severity == severity {
			out = append(out, v)
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
