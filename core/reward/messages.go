package reward

import "fmt"

// Caregiver summaries ship in English or Swahili; the language preference
// comes from configuration, defaulting to English for anything unknown.

func caregiverSummary(lang, learner, lessonTitle string, score, total, percent int, passed bool) string {
	if lang == "sw" {
		line := "Himiza mwanafunzi wako ajaribu tena."
		if passed {
			line = "Vizuri sana! Mwanafunzi wako amefaulu!"
		}
		return fmt.Sprintf(
			"SoundSteps Ripoti ya Somo\n\nMwanafunzi: %s\nSomo: %s\nAlama: %d/%d (%d%%)\n\n%s\n\n"+
				"Kwa maelezo zaidi, angalia programu ya SoundSteps.",
			learner, lessonTitle, score, total, percent, line,
		)
	}

	line := "Encourage your student to try again."
	if passed {
		line = "Great job! Your student passed!"
	}
	return fmt.Sprintf(
		"SoundSteps Lesson Update\n\nStudent: %s\nLesson: %s\nQuiz Score: %d/%d (%d%%)\n\n%s\n\n"+
			"For more details, check the SoundSteps app.",
		learner, lessonTitle, score, total, percent, line,
	)
}

func learnerSummary(lessonTitle string, score, total, percent int, passed bool) string {
	line := "Keep studying and try again!"
	if passed {
		line = "Excellent work! You passed!"
	}
	return fmt.Sprintf(
		"Lesson Complete!\n\n%s\nFinal Score: %d/%d (%d%%)\n\n%s\n\nThank you for using SoundSteps!",
		lessonTitle, score, total, percent, line,
	)
}

func rewardConfirmation(amount, currency string, caregiver bool) string {
	verb := "completing"
	if caregiver {
		verb = "supporting"
	}
	return fmt.Sprintf(
		"Congratulations! You've earned %s %s airtime for %s your SoundSteps lesson. Keep learning!",
		currency, amount, verb,
	)
}
