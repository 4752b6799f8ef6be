package web

import (
	"valentine-server/internal/letter"
)

const (
	LetterPage   = "letter.html"
	NotFoundPage = "not_found.html"
)

// LetterPageData is everything the letter page needs before the session connects.
type LetterPageData struct {
	Title          string
	Narrative      []letter.Scene
	YesLabel       string
	NoLabel        string
	AnsweredTitle  string
	AnsweredLine   string
	DeclinedTitle  string
	DeclinedLine   string
	EscalatedTitle string
	EscalatedLine  string
	ResetLabel     string
	NoticeTitle    string
	NoticeBody     string
	WebSocketPath  string
}

func NewLetterPageData(wsPath string) LetterPageData {
	return LetterPageData{
		Title:          "For you ❤️",
		Narrative:      letter.Narrative,
		YesLabel:       letter.YesLabel,
		NoLabel:        letter.NoLabel,
		AnsweredTitle:  letter.AnsweredTitle,
		AnsweredLine:   letter.AnsweredLine,
		DeclinedTitle:  letter.DeclinedTitle,
		DeclinedLine:   letter.DeclinedLine,
		EscalatedTitle: letter.EscalatedTitle,
		EscalatedLine:  letter.EscalatedLine,
		ResetLabel:     letter.ResetLabel,
		NoticeTitle:    letter.NoticeTitle,
		NoticeBody:     letter.NoticeBody,
		WebSocketPath:  wsPath,
	}
}

type NotFoundPageData struct {
	Title string
	Path  string
}
