package models

import "testing"

func TestQuestion_IsCorrectAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		qType   QuestionType
		correct string
		answer  string
		want    bool
	}{
		{"multiple choice exact", QuestionMultipleChoice, "B", "B", true},
		{"multiple choice case folded", QuestionMultipleChoice, "B", "b", true},
		{"multiple choice wrong", QuestionMultipleChoice, "B", "C", false},
		{"multiple choice whitespace", QuestionMultipleChoice, "B", " B ", true},
		{"grid-in numeric equivalence", QuestionGridIn, "0.5", ".5", true},
		{"grid-in fraction mismatch", QuestionGridIn, "0.5", "0.51", false},
		{"grid-in integer", QuestionGridIn, "12", "12", true},
		{"grid-in non-numeric fallback", QuestionGridIn, "n/a", "N/A", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := Question{
				Type:    tc.qType,
				Content: QuestionContent{CorrectAnswer: tc.correct},
			}
			if got := q.IsCorrectAnswer(tc.answer); got != tc.want {
				t.Fatalf("IsCorrectAnswer(%q) = %v, want %v", tc.answer, got, tc.want)
			}
		})
	}
}

func TestTestSession_Percentages(t *testing.T) {
	t.Parallel()

	var s TestSession
	if s.Accuracy() != 0 || s.Completion() != 0 {
		t.Fatal("empty session should report zero percentages")
	}

	s.TotalQuestions = 10
	s.AnsweredQuestions = 4
	s.CorrectAnswers = 3

	if got := s.Accuracy(); got != 75 {
		t.Fatalf("Accuracy() = %v, want 75", got)
	}
	if got := s.Completion(); got != 40 {
		t.Fatalf("Completion() = %v, want 40", got)
	}
}

func TestTestSession_CanResume(t *testing.T) {
	t.Parallel()

	resumable := map[SessionStatus]bool{
		StatusActive:    true,
		StatusPaused:    true,
		StatusCompleted: false,
		StatusAbandoned: false,
	}

	for status, want := range resumable {
		s := TestSession{Status: status}
		if got := s.CanResume(); got != want {
			t.Fatalf("CanResume() for %q = %v, want %v", status, got, want)
		}
	}
}

func TestRole_IsValid(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleStudent, RoleAdmin, RoleInstructor} {
		if !r.IsValid() {
			t.Fatalf("role %q unexpectedly invalid", r)
		}
	}
	if Role("superuser").IsValid() {
		t.Fatal("unknown role accepted")
	}
}

func TestUser_FullName(t *testing.T) {
	t.Parallel()

	u := User{Email: "alice@example.com"}
	if got := u.FullName(); got != "alice@example.com" {
		t.Fatalf("FullName() = %q", got)
	}

	u.FirstName = "Alice"
	if got := u.FullName(); got != "Alice" {
		t.Fatalf("FullName() = %q", got)
	}

	u.LastName = "Smith"
	if got := u.FullName(); got != "Alice Smith" {
		t.Fatalf("FullName() = %q", got)
	}
}
