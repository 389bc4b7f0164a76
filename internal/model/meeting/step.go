package meeting

// Step is one phase of the fixed meeting agenda.
type Step struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ExpectedMessages string `json:"expectedMessages"`
}

// FinalStepID is the id of the last agenda step.
const FinalStepID = 6

var steps = []Step{
	{
		ID:               1,
		Name:             "開会・参加者紹介",
		Description:      "会議の開始と各参加者の自己紹介を行います。進行役が開会を宣言し、会議の目的を説明した後、各参加者が簡潔に自己紹介を行います。本人からも自己紹介と簡単な抱負を述べてもらいます。",
		ExpectedMessages: "6-8発言",
	},
	{
		ID:               2,
		Name:             "就労選択支援での観察結果報告",
		Description:      "進行役（就労選択支援員）がアセスメント結果と観察ポイントを具体的に報告します。本人に実際の感想も確認します。",
		ExpectedMessages: "4-6発言",
	},
	{
		ID:               3,
		Name:             "本人の希望・意向の確認",
		Description:      "進行役が本人と保護者に、就労に関する希望や支援で感じたことなどを質問し、意向を確認します。本人には作業で楽しかったこと、頑張れたこと、不安なことなどを具体的に聞き出します。",
		ExpectedMessages: "5-7発言",
	},
	{
		ID:               4,
		Name:             "各機関からの情報共有",
		Description:      "学校教員、B型事業所職員、移行支援事業所職員などが、それぞれの立場から本人の状況や事業所の情報を提供します。各報告の後で本人の感想や質問を確認します。",
		ExpectedMessages: "6-9発言",
	},
	{
		ID:               5,
		Name:             "意見交換",
		Description:      "相談支援専門員、センター支援員などが中心となり、これまでの情報に基づき、専門的見地から意見交換や質疑応答を行います。本人の理解度を確認しながら進めます。",
		ExpectedMessages: "5-8発言",
	},
	{
		ID:               6,
		Name:             "支援方針の確認",
		Description:      "進行役が議論の結果を踏まえ、具体的な支援方針を提案し、参加者の合意を確認します。本人に分かりやすく説明し、各機関の役割分担と次回の会議予定なども確認します。最後に本人から決意表明や感想を聞き、保護者の最終意向も確認して閉会します。",
		ExpectedMessages: "4-6発言",
	},
}

// Steps returns a copy of the agenda in execution order.
func Steps() []Step {
	return append([]Step(nil), steps...)
}

// StepByID looks up an agenda step.
func StepByID(id int) (Step, bool) {
	if id < 1 || id > len(steps) {
		return Step{}, false
	}
	return steps[id-1], true
}
