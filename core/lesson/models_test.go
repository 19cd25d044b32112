package lesson

import "testing"

func TestQuestionCorrectTokens(t *testing.T) {
	tests := []struct {
		name       string
		index      int
		wantDigit  string
		wantLetter string
	}{
		{name: "first option", index: 0, wantDigit: "1", wantLetter: "A"},
		{name: "second option", index: 1, wantDigit: "2", wantLetter: "B"},
		{name: "last option", index: 3, wantDigit: "4", wantLetter: "D"},
		{name: "negative index", index: -1},
		{name: "out of range", index: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{CorrectIndex: tt.index}
			if got := q.CorrectDigit(); got != tt.wantDigit {
				t.Errorf("CorrectDigit() = %q; want %q", got, tt.wantDigit)
			}
			if got := q.CorrectLetter(); got != tt.wantLetter {
				t.Errorf("CorrectLetter() = %q; want %q", got, tt.wantLetter)
			}
		})
	}
}

func TestFixtures(t *testing.T) {
	fixtures := Fixtures()
	if len(fixtures) == 0 {
		t.Fatal("Fixtures() returned nothing")
	}
	for _, l := range fixtures {
		if len(l.Questions) == 0 {
			t.Errorf("lesson %q has no quiz questions", l.ID)
		}
		for i, q := range l.Questions {
			if len(q.Options) != 4 {
				t.Errorf("lesson %q question %d has %d options; want 4", l.ID, i, len(q.Options))
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				t.Errorf("lesson %q question %d has correct index %d out of range", l.ID, i, q.CorrectIndex)
			}
		}
	}
}
