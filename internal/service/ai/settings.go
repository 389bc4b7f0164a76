package ai

import (
	"fmt"
	"strings"

	"github.com/kaigi-sim/backend/internal/model/meeting"
)

const welfareConstraints = `

### 【重要】障害福祉制度の遵守事項

**サービス利用の制約:**
- 就労継続支援B型と就労移行支援の同時利用・併用・隔日利用は認められていません
- 就労選択支援は他サービスとの同時利用はできません（単独利用が原則）
- 18歳未満は就労継続支援B型を利用できません
- 就労移行支援の標準利用期間は2年（特別な場合1年延長可能）

**必要な手続き:**
- 相談支援専門員によるサービス等利用計画の作成が必要
- 市町村による支給決定が前提となります

**重要な注意事項:**
上記の制度上の制約に反する発言や提案は絶対に行わないでください。
制度に沿った適切な支援計画のみを議論してください。`

var speechLengthInstructions = map[meeting.Level]string{
	1: "各発言は30-50文字程度で簡潔に表現してください。",
	2: "各発言は50-80文字程度で要点を絞って表現してください。",
	3: "各発言は80-120文字程度で適度な詳しさで表現してください。",
	4: "各発言は120-180文字程度でやや詳細に表現してください。",
	5: "各発言は180-250文字程度で詳細かつ具体的に表現してください。",
}

var assessmentTexts = map[string]string{
	"work-observation": "作業観察結果が詳細に実施されている",
	"aptitude-test":    "適性検査による客観的データがある",
	"interview-result": "本人面談による意向確認が行われている",
	"school-report":    "学校からの詳細な情報提供がある",
	"family-interview": "家族面談による家庭状況の把握ができている",
	"medical-info":     "医療機関からの専門的な情報がある",
}

var goalInstructions = map[string]string{
	"consensus":   "参加者全員の合意形成を重視し、異なる意見を調整しながら進めてください。",
	"exploration": "様々な選択肢を幅広く検討し、本人の可能性を最大限探索してください。",
	"empowerment": "本人の自己決定と主体性を最重視し、本人の発言を中心に据えてください。",
}

var progressInstructions = map[string]string{
	"structured": "あらかじめ決められた議題に沿って、段階的に構造化して進行してください。",
	"flexible":   "参加者の発言や状況に応じて、柔軟で自然な流れで進行してください。",
}

var expertiseInstructions = map[string]string{
	"balanced":        "各専門職の視点をバランス良く取り入れながら進めてください。",
	"technical":       "各分野の専門的知見と技術的観点を重視した議論を展開してください。",
	"person-centered": "専門的視点よりも本人中心の考え方を最優先に進めてください。",
}

// EnhanceWithSettings renders the prompt sections driven by the form settings.
// The welfare constraints block is always included; unknown option values are skipped.
func EnhanceWithSettings(settings meeting.Settings) string {
	var sb strings.Builder
	sb.WriteString(welfareConstraints)

	if text, ok := speechLengthInstructions[settings.SpeechLength]; ok {
		fmt.Fprintf(&sb, "\n\n### 発言の長さ指示\n%s\n", text)
	}

	if len(settings.Assessments) > 0 {
		selected := make([]string, 0, len(settings.Assessments))
		for _, a := range settings.Assessments {
			if text, ok := assessmentTexts[a]; ok {
				selected = append(selected, text)
			}
		}
		if len(selected) > 0 {
			fmt.Fprintf(&sb, "\n\n### 利用可能な事前アセスメント情報\n%s\n", strings.Join(selected, "、"))
		}
	}

	if text, ok := goalInstructions[settings.GoalPath]; ok {
		fmt.Fprintf(&sb, "\n### 会議のゴール設定\n%s\n", text)
	}
	if text, ok := progressInstructions[settings.ProgressPattern]; ok {
		fmt.Fprintf(&sb, "\n### 進行方針\n%s\n", text)
	}
	if text, ok := expertiseInstructions[settings.Expertise]; ok {
		fmt.Fprintf(&sb, "\n### 専門性の活用方針\n%s\n", text)
	}

	return sb.String()
}
