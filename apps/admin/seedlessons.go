package main

import (
	"github.com/trezcool/soundsteps/core/lesson"
)

// seedLessons upserts the built-in lesson fixtures so a fresh deployment has
// content to deliver.
func (cli *commandLine) seedLessons() error {
	for _, l := range lesson.Fixtures() {
		if err := cli.lessonRepo.SaveLesson(l); err != nil {
			return err
		}
		logger.Printf("seeded lesson %q (%d questions)", l.ID, len(l.Questions))
	}
	return nil
}
