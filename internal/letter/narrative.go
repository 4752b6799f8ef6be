package letter

// Scene is the copy of one narrative step. Presentation layers render it as is.
type Scene struct {
	Step   Step     `json:"step"`
	Key    string   `json:"key"`
	Lines  []string `json:"lines"`
	Action string   `json:"action,omitempty"` // кнопка перехода; пусто на финальном шаге
}

const (
	YesLabel = "YES! ❤️"
	NoLabel  = "No"

	AnsweredTitle  = "YAY! ❤️"
	AnsweredLine   = "I knew you would say yes. See you on the 14th."
	DeclinedTitle  = "Okay..."
	DeclinedLine   = "Thank you for being honest with me."
	EscalatedTitle = "Error 404"
	EscalatedLine  = "The \"No\" button has left the chat. Try again?"
	ResetLabel     = "Try again"

	NoticeTitle = "Oh no..."
	NoticeBody  = "Something went wrong saving your answer. But I still heard it!"
)

// Narrative is the fixed letter, indexed by Step.
var Narrative = []Scene{
	{
		Step: StepIntro,
		Key:  "intro",
		Lines: []string{
			"I was going to write you a letter, but then I realized this is the language we both understand... plus I have shitty handwriting.",
		},
		Action: "Continue",
	},
	{
		Step: StepReflection,
		Key:  "reflection",
		Lines: []string{
			"I know we've had our ups and downs.",
			"Life is boring without your chaos. I want to work through everything with you. I promise things will get better.",
		},
		Action: "Keep Reading",
	},
	{
		Step:  StepQuestion,
		Key:   "question",
		Lines: []string{"Will you be my Valentine?"},
	},
}

// SceneFor returns the scene for step, clamped to the narrative bounds.
func SceneFor(step Step) Scene {
	switch {
	case step < 0:
		return Narrative[0]
	case int(step) >= len(Narrative):
		return Narrative[len(Narrative)-1]
	}
	return Narrative[step]
}

// Outcome returns the title and line of the answered screen for a.
// An unset answer has no outcome.
func Outcome(a Answer) (title, line string) {
	switch a {
	case AnswerYes:
		return AnsweredTitle, AnsweredLine
	case AnswerNo:
		return DeclinedTitle, DeclinedLine
	default:
		return "", ""
	}
}
