package protocol

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"party-quiz-service/internal/domain"
)

func fullQuestion() domain.Question {
	return domain.Question{
		ID:              "q1",
		Kind:            domain.AnswerText,
		Prompt:          "Red planet?",
		Options:         []string{"Venus", "Mars"},
		CorrectOption:   1,
		AcceptedAnswers: []string{"Mars"},
		Target:          1969,
		HasTarget:       true,
		LowerBound:      1900,
		UpperBound:      2000,
	}
}

func TestSanitizeQuestion(t *testing.T) {
	got := SanitizeQuestion(fullQuestion())

	if got.CorrectOption != -1 {
		t.Fatalf("correct option leaked: %d", got.CorrectOption)
	}
	if got.AcceptedAnswers != nil {
		t.Fatalf("accepted answers leaked: %v", got.AcceptedAnswers)
	}
	if got.Target != 0 || got.HasTarget {
		t.Fatalf("numeric target leaked: %v (has=%v)", got.Target, got.HasTarget)
	}
	// Display fields and estimation bounds survive.
	if got.Prompt != "Red planet?" || len(got.Options) != 2 {
		t.Fatalf("display fields stripped: %+v", got)
	}
	if got.LowerBound != 1900 || got.UpperBound != 2000 {
		t.Fatalf("bounds stripped: [%v, %v]", got.LowerBound, got.UpperBound)
	}
}

func TestQuestionShowNeverCarriesAnswer(t *testing.T) {
	show := NewQuestionShow(fullQuestion(), 0, 10, 20, time.Now())
	data, err := Encode(show)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(data), "Mars") && strings.Contains(string(data), "acceptedAnswers") {
		t.Fatalf("wire frame leaks accepted answers: %s", data)
	}
	if strings.Contains(string(data), "1969") {
		t.Fatalf("wire frame leaks numeric target: %s", data)
	}

	replaced := NewQuestionReplaced(fullQuestion(), 0, 10, 20, time.Now())
	if replaced.Question.CorrectOption != -1 {
		t.Fatalf("replacement broadcast not sanitized: %+v", replaced.Question)
	}
}

func TestEncodeEnvelope(t *testing.T) {
	data, err := Encode(QuestionEnd{QuestionID: "q1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != KindQuestionEnd {
		t.Fatalf("envelope type = %q, want %q", env.Type, KindQuestionEnd)
	}
	var payload QuestionEnd
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.QuestionID != "q1" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestDecodeFromPlayer(t *testing.T) {
	data, err := Encode(PlayerAnswer{PlayerID: "p1", QuestionID: "q1", Value: "2"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg, err := DecodeFromPlayer(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	answer, ok := msg.(*PlayerAnswer)
	if !ok {
		t.Fatalf("decoded wrong type %T", msg)
	}
	if answer.PlayerID != "p1" || answer.QuestionID != "q1" || answer.Value != "2" {
		t.Fatalf("decoded payload: %+v", answer)
	}
}

func TestDecodeFromPlayerRejectsOutboundKinds(t *testing.T) {
	data, err := Encode(GameEnd{FinishedAt: time.Now()})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeFromPlayer(data); err == nil {
		t.Fatalf("broadcast kind accepted as inbound traffic")
	}

	if _, err := DecodeFromPlayer([]byte(`{"type":"bogus","payload":{}}`)); err == nil {
		t.Fatalf("unknown kind accepted")
	}
	if _, err := DecodeFromPlayer([]byte(`not json`)); err == nil {
		t.Fatalf("malformed frame accepted")
	}
}
