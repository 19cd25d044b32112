package lesson

// Fixtures returns the built-in lessons, seeded into storage by the admin CLI
// and used directly by the in-memory repository.
func Fixtures() []Lesson {
	return []Lesson{
		{
			ID:          "basic-addition-001",
			Title:       "Basic Addition",
			Description: "A short lesson on basic addition with a two-question quiz.",
			Concept: "Addition means putting groups together. If you have two apples, " +
				"and someone gives you three more, you count them together to get five.",
			Practice: "Now practice: hold up two fingers, then three more fingers. " +
				"Count them slowly... one... two... three... four... five. Great job.",
			Example: &Question{
				Text: "Listen: Two apples, then three apples. How many apples do we have in total?",
				Options: []string{
					"Four", "Five", "Six", "I don't know",
				},
				CorrectIndex: 1,
			},
			Questions: []Question{
				{
					Text:         "What is 1 plus 2?",
					Options:      []string{"2", "3", "4", "5"},
					CorrectIndex: 1,
				},
				{
					Text:         "If you have three bananas and get two more, how many bananas do you have?",
					Options:      []string{"4", "5", "6", "3"},
					CorrectIndex: 1,
				},
			},
			DurationSeconds: 180,
		},
		{
			ID:          "basic-mathematics-001",
			Title:       "Basic Mathematics",
			Description: "Learn basic addition, subtraction, and multiplication through interactive questions.",
			Questions: []Question{
				{
					Text:         "What is 2 plus 2?",
					Options:      []string{"3", "4", "5", "6"},
					CorrectIndex: 1,
				},
				{
					Text:         "What is 10 minus 5?",
					Options:      []string{"3", "4", "5", "6"},
					CorrectIndex: 2,
				},
				{
					Text:         "What is 3 times 3?",
					Options:      []string{"6", "8", "9", "12"},
					CorrectIndex: 2,
				},
			},
			DurationSeconds: 240,
		},
	}
}
