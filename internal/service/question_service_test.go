package service

import (
	"errors"
	"testing"
)

func TestParseGeneratedQuestions(t *testing.T) {
	reply := `{"questions":[
		{"question":"Explain your methodology.","keyPoints":["design choice","limitations"]},
		{"question":"  What surprised you?  ","keyPoints":["  one "," ",""]}
	]}`

	questions, err := ParseGeneratedQuestions(reply)
	if err != nil {
		t.Fatalf("ParseGeneratedQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[1].Question != "What surprised you?" {
		t.Errorf("question not trimmed: %q", questions[1].Question)
	}
	if len(questions[1].KeyPoints) != 1 || questions[1].KeyPoints[0] != "one" {
		t.Errorf("blank key points must be dropped, got %#v", questions[1].KeyPoints)
	}
}

func TestParseGeneratedQuestionsCodeFence(t *testing.T) {
	reply := "```json\n{\"questions\":[{\"question\":\"Why this topic?\",\"keyPoints\":[]}]}\n```"
	questions, err := ParseGeneratedQuestions(reply)
	if err != nil {
		t.Fatalf("fenced reply must parse: %v", err)
	}
	if len(questions) != 1 || questions[0].Question != "Why this topic?" {
		t.Errorf("unexpected result: %#v", questions)
	}

	// Bare fence without the language tag.
	reply = "```\n{\"questions\":[{\"question\":\"Why this topic?\"}]}\n```"
	if _, err := ParseGeneratedQuestions(reply); err != nil {
		t.Errorf("bare fence must parse: %v", err)
	}
}

func TestParseGeneratedQuestionsRejectsBadReplies(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"not json", "Sure! Here are some questions for you."},
		{"wrong shape", `{"items":["a"]}`},
		{"empty list", `{"questions":[]}`},
		{"only blank questions", `{"questions":[{"question":"   "},{"question":""}]}`},
	}
	for _, tc := range cases {
		if _, err := ParseGeneratedQuestions(tc.reply); !errors.Is(err, ErrBadGeneration) {
			t.Errorf("%s: expected ErrBadGeneration, got %v", tc.name, err)
		}
	}
}

func TestParseGeneratedQuestionsCapsCount(t *testing.T) {
	reply := `{"questions":[`
	for i := 0; i < maxGeneratedQuestions+4; i++ {
		if i > 0 {
			reply += ","
		}
		reply += `{"question":"q"}`
	}
	reply += `]}`

	questions, err := ParseGeneratedQuestions(reply)
	if err != nil {
		t.Fatalf("ParseGeneratedQuestions: %v", err)
	}
	if len(questions) != maxGeneratedQuestions {
		t.Errorf("expected cap at %d, got %d", maxGeneratedQuestions, len(questions))
	}
}
