package ai

import (
	"fmt"
	"strings"

	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/model/role"
)

const (
	noRemarks          = "特記事項なし"
	noPerspective      = "（特記事項なし）"
	selfRoleKey        = "本人"
	guardianRoleKey    = "保護者"
	previousFlowHeader = "## これまでの会議の流れ"
)

// PromptBuilder renders the prompts sent to the provider.
type PromptBuilder struct {
	roles role.Store
}

// NewPromptBuilder uses roles for participant perspectives. A nil store falls back to the seed catalog.
func NewPromptBuilder(roles role.Store) *PromptBuilder {
	if roles == nil {
		roles = role.NewMemoryStore(role.Seed())
	}
	return &PromptBuilder{roles: roles}
}

// Step renders the prompt for one agenda step. previous carries every
// utterance of the steps before it.
func (b *PromptBuilder) Step(step meeting.Step, form meeting.FormData, previous []meeting.Utterance) string {
	var sb strings.Builder

	sb.WriteString("\nあなたは多機関連携会議のシミュレーションを行うためのAIアシスタントです。障害者の就労支援に関する専門知識を持ち、リアルな会議の流れを再現してください。\n\n")
	fmt.Fprintf(&sb, "## 現在のステップ: %s\n%s\n\n", step.Name, step.Description)
	writeCaseInfo(&sb, form, "###")
	sb.WriteString("\n\n## 参加者と期待される視点\n")
	sb.WriteString(b.Perspectives(form))
	sb.WriteString("\n")
	if len(previous) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(previousFlowHeader)
		sb.WriteString("\n")
		sb.WriteString(meeting.FlattenLog(previous))
	}

	if form.Settings != nil {
		sb.WriteString(EnhanceWithSettings(*form.Settings))
	}

	fmt.Fprintf(&sb, `

## 出力指示
- 「参加者名（役割）: 発言内容」または「参加者名: 発言内容」の形式で出力
- %s程度の自然な対話を生成
- このステップに特化した内容のみ生成
- 自然な会話調で表現する
- 本人の発言を必ず含める

## 注意事項
- ステップタイトルは出力に含めない
- 他のステップの内容は含めない
- 自然で現実的な対話を心がける

シミュレーション開始:
`, step.ExpectedMessages)

	return sb.String()
}

// Full renders the single-shot prompt that asks for the whole meeting at once.
func (b *PromptBuilder) Full(form meeting.FormData) string {
	var sb strings.Builder

	sb.WriteString(`
システムプロンプト

あなたは多機関連携会議のシミュレーションを行うためのAIアシスタントです。障害者の就労支援に関する専門知識を持ち、以下の各参加者の役割と期待される視点を理解して、リアルな会議の流れを再現してください。

## シミュレーションの目的
このシミュレーションは、障害者の就労選択支援における多機関連携会議の流れと各参加者の視点を再現し、支援方針決定のプロセスを明らかにすることを目的としています。

## ケース情報
`)
	writeCaseInfo(&sb, form, "#")
	sb.WriteString(`

## 実際の参加者と期待される視点【重要：各参加者はこの視点に基づいて発言してください】
以下のリストにある各参加者は、記載された期待される視点に基づいて発言を行ってください。特に指示がある場合はそれに従ってください。
`)
	sb.WriteString(b.Perspectives(form))
	sb.WriteString(fullAgenda)
	return sb.String()
}

// Summary renders the prompt asking for an HTML summary of a finished meeting.
func (b *PromptBuilder) Summary(form meeting.FormData, meetingLog string) string {
	var sb strings.Builder

	sb.WriteString(`
あなたは経験豊富な障害福祉の専門家であり、多機関連携会議のファシリテーターです。
以下の会議の会話ログを分析し、次の2つのタスクを実行してください。出力はHTML形式でお願いします。

## タスク1: 会議の結論の要約
以下の3つの項目で、会議で決定された事項を簡潔にまとめてください。見出しは<h4>タグで、内容は<ul><li>タグで記述してください。
- 支援方針
- 短期目標(3ヶ月後)
- 役割分担

## タスク2: ✨ 次のステップへの創造的な提案
会議の結果を踏まえ、本人と支援チームが次に取り組むべき、具体的で希望の持てるアクションプランを3つ提案してください。単なるタスクリストではなく、本人の強みを活かし、自己肯定感を高めるような、創造的でワクワクするような提案を心がけてください。見出しは<h4>タグで、各提案は<p>タグで記述してください。

## ケース情報参考
`)
	fmt.Fprintf(&sb, "### 対象者の基本情報\n%s\n\n", form.BasicInfo)
	fmt.Fprintf(&sb, "### アセスメント結果概要\n%s\n\n", form.AssessmentSummary)
	fmt.Fprintf(&sb, "### 観察ポイント\n%s\n\n", orDefault(form.ObservationPoints, noRemarks))
	fmt.Fprintf(&sb, "## 会議ログ\n%s\n", meetingLog)
	return sb.String()
}

// perspective is one role key with the viewpoint a matching participant speaks from.
type perspective struct {
	key         string
	description string
}

func (b *PromptBuilder) perspectives(settings *meeting.Settings) []perspective {
	if settings != nil && len(settings.CustomRoles) > 0 {
		out := make([]perspective, 0, len(settings.CustomRoles))
		for _, r := range settings.CustomRoles {
			out = append(out, perspective{key: r.Role, description: r.Description})
		}
		return out
	}

	catalog := b.roles.List()
	out := make([]perspective, 0, len(catalog))
	for _, r := range catalog {
		out = append(out, perspective{key: r.Key, description: r.Description})
	}
	return out
}

// Perspectives lists every participant with the viewpoint they should speak
// from, one "- name（role）: description" line each.
func (b *PromptBuilder) Perspectives(form meeting.FormData) string {
	table := b.perspectives(form.Settings)

	lines := make([]string, 0, len(form.Participants))
	for _, p := range form.Participants {
		description := noPerspective
		instruction := ""

		for _, entry := range table {
			if entry.key == "" {
				continue
			}
			if p.Role != "" && strings.Contains(p.Role, entry.key) {
				description = entry.description
				if r, ok := b.roles.FindByKey(entry.key); ok {
					instruction = r.Instruction
				}
				break
			}
			if p.Role == "" && (entry.key == selfRoleKey || entry.key == guardianRoleKey) && strings.Contains(p.Name, entry.key) {
				description = entry.description
				break
			}
		}

		rolePart := ""
		if p.Role != "" {
			rolePart = "（" + p.Role + "）"
		}
		if instruction != "" {
			description += " " + instruction
		}
		lines = append(lines, fmt.Sprintf("- %s%s: %s", p.Name, rolePart, description))
	}
	return strings.Join(lines, "\n")
}

func writeCaseInfo(sb *strings.Builder, form meeting.FormData, heading string) {
	fmt.Fprintf(sb, "%s 対象者の基本情報\n%s\n\n", heading, form.BasicInfo)
	fmt.Fprintf(sb, "%s アセスメント結果概要\n%s\n\n", heading, form.AssessmentSummary)
	fmt.Fprintf(sb, "%s 就労選択支援事業での観察ポイント\n%s", heading, orDefault(form.ObservationPoints, noRemarks))
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

const fullAgenda = `

## 会議の進行手順【重要：以下の7ステップに沿って議論を進めてください】
会議は以下の7つのステップで段階的に進行するように、自然な会話の流れを生成してください。各ステップの内容を省略せず、それぞれの議論を適切に行ってください。セクションタイトル（###）は出力に含めないでください。

1.  **開会・参加者紹介**: 進行役が開会宣言と目的説明後、各参加者が簡潔に自己紹介を行う。本人からも自己紹介と簡単な抱負を述べてもらう。
2.  **就労選択支援での観察結果報告**: 進行役（就労選択支援員）がアセスメント結果と観察ポイントを具体的に報告する。本人に実際の感想を確認する。
3.  **本人の希望・意向の確認**: 進行役が本人と保護者に、就労に関する希望や支援で感じたことなどを質問し、意向を確認する。本人には作業で楽しかったこと、頑張れたこと、不安なことなどを具体的に聞き出す。
4.  **各機関からの情報共有**: 学校教員、B型事業所職員、移行支援事業所職員などが、それぞれの立場から本人の状況や事業所の情報を提供する。各報告の後で本人の感想や質問を確認する。
5.  **意見交換**: 相談支援専門員、センター支援員などが中心となり、これまでの情報に基づき、専門的見地から意見交換や質疑応答を行う。本人の理解度を確認しながら進める。
6.  **方向性の検討**: 進行役が議論を整理し、B型利用、移行支援利用、その他の可能性など、今後の具体的な方向性について参加者全員で議論する。本人の意見も積極的に引き出す。
7.  **支援方針の確認**: 進行役が議論の結果を踏まえ、具体的な支援方針を提案し、参加者の合意を確認する。本人に分かりやすく説明し、各機関の役割分担と次回の会議予定なども確認する。最後に本人から決意表明や感想を聞き、保護者の最終意向も確認して閉会する。

## 表現上の注意点
-   各参加者の専門性や立場、期待される視点を反映した自然な対話を心がける
-   障害者本人を尊重した表現を使用する
-   現実的な支援の選択肢や制度的制約を考慮する
-   専門用語は適切に使用し、必要に応じて噛み砕いた説明を加える

## 出力形式
「参加者名（役割）: 発言内容」または「参加者名: 発言内容」の形式で、会議の流れに沿った対話形式のみで出力してください。（ステップタイトルは含めないでください）
会議の最後に、決定された支援方針の要点をまとめてください。

# シミュレーション開始:
`
