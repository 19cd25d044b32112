package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/lesson"
)

var errHelp = errors.New("help provided")

type lessonSaver interface {
	SaveLesson(l lesson.Lesson) error
}

type commandLine struct {
	conf       *core.Config
	db         *sql.DB
	lessonRepo lessonSaver
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [up|up-to|down|down-to|redo|status|version|create] - run database migrations")
	fmt.Println("  seedlessons - load the built-in lesson fixtures into the database")
	fmt.Println("  teachertoken -subject SUBJECT [-username USERNAME] - mint a teacher JWT for dashboard access")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	teacherTokenCmd := flag.NewFlagSet("teachertoken", flag.ExitOnError)
	teacherTokenSubject := teacherTokenCmd.String("subject", "", "A stable identifier for the teacher (email or id).")
	teacherTokenUname := teacherTokenCmd.String("username", "", "Display name embedded in the token.")

	switch args[1] {
	case "migrate":
		cmdArgs := args[2:]
		if len(cmdArgs) == 0 {
			cmdArgs = []string{"up"}
		}
		return cli.migrate(cmdArgs)
	case "seedlessons":
		return cli.seedLessons()
	case "teachertoken":
		if err := teacherTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *teacherTokenSubject == "" {
			teacherTokenCmd.Usage()
			return errHelp
		}
		return cli.teacherToken(*teacherTokenSubject, *teacherTokenUname)
	default:
		cli.printUsage()
		return errHelp
	}
}
