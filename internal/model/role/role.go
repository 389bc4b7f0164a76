package role

// Role captures how one meeting role is described to the generator and shown in the UI.
type Role struct {
	Key         string `json:"key" yaml:"key"`
	Description string `json:"description" yaml:"description"`
	Instruction string `json:"instruction,omitempty" yaml:"instruction,omitempty"` // extra prompt instruction
	Icon        string `json:"icon" yaml:"icon"`
	ShortLabel  string `json:"shortLabel" yaml:"shortLabel"`
}

// Seed returns the default role catalog in priority order.
func Seed() []Role {
	return []Role{
		{
			Key:         "就労選択支援員",
			Description: "アセスメント結果を客観的に報告し、会議全体の進行を担当し、各参加者の意見を引き出し、中立的な立場から支援方針をまとめる視点を持つ。特に本人の意見を丁寧に聞き出すことを心がける。",
			Icon:        "🧭",
			ShortLabel:  "選択支援",
		},
		{
			Key:         "特別支援学校教員",
			Description: "学校生活での様子、強み、課題を共有し、教育的観点から本人の特性を評価し、進路指導の経験から適切な選択肢を提案する視点を持つ。",
			Icon:        "🏫",
			ShortLabel:  "教員",
		},
		{
			Key:         "相談支援専門員",
			Description: "本人の生活状況や家族の意向を把握・代弁し、福祉サービスの情報提供や利用調整を行い、長期的な視点での生活設計を支援する視点を持つ。",
			Instruction: "特に、本人の生活状況や家族の意向を踏まえ、利用可能な福祉サービス（例：グループホーム、移動支援など）や長期的な生活設計について具体的に言及・提案してください。",
			Icon:        "📋",
			ShortLabel:  "相談支援",
		},
		{
			Key:         "就労継続支援B型事業所 職員",
			Description: "事業所の特徴、作業内容、受け入れ体制を説明し、本人の適性や必要な配慮について意見を述べ、実習時の様子などを共有する視点を持つ。",
			Icon:        "🛠️",
			ShortLabel:  "B型",
		},
		{
			Key:         "就労移行支援事業所 職員",
			Description: "就労移行支援のプログラム内容や効果を説明し、一般就労の可能性や必要なスキルについて意見を述べ、B型事業所との連携やステップアップを提案する視点を持つ。",
			Icon:        "💼",
			ShortLabel:  "移行支援",
		},
		{
			Key:         "障害者就業・生活支援センター 支援員",
			Description: "地域の就労支援ネットワークや利用可能な社会資源について情報提供し、就職活動のサポートや定着支援について説明し、関係機関との連携調整役を担う視点を持つ。",
			Icon:        "🤝",
			ShortLabel:  "センター",
		},
		{
			Key:         "保護者",
			Description: "家庭での本人の様子や将来への希望、不安を伝え、支援方針に対する意向を表明する視点を持つ。",
			Icon:        "👪",
			ShortLabel:  "保護者",
		},
		{
			Key:         "本人",
			Description: "自分の希望や気持ちを積極的に表現し、質問に対して具体的に答える。実習や作業で感じたこと、好きな作業、苦手なこと、将来の希望など、自分の意見をしっかりと伝える。ただし、答えに詰まった場合は、支援者からの丁寧な質問で引き出してもらう。",
			Icon:        "🙂",
			ShortLabel:  "本人",
		},
	}
}
