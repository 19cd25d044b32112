package main

import (
	"database/sql"
	"io/fs"
	"log"
	"os"
	"testing"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/lesson"
)

type lessonSaverSpy struct {
	saved []lesson.Lesson
}

func (s *lessonSaverSpy) SaveLesson(l lesson.Lesson) error {
	s.saved = append(s.saved, l)
	return nil
}

func TestMain(m *testing.M) {
	logger = log.New(os.Stdout, "ADMIN-TEST : ", log.LstdFlags)
	os.Exit(m.Run())
}

func Test_commandLine_run(t *testing.T) {
	var gooseCalls [][]string
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		call := append([]string{command, dir}, args...)
		gooseCalls = append(gooseCalls, call)
		return nil
	}

	conf := &core.Config{AppName: "SoundSteps", SecretKey: "test-secret"}

	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantGoose  []string
		wantSeeded bool
	}{
		{name: "no args", args: []string{"admin"}, wantErr: errHelp},
		{name: "unknown command", args: []string{"admin", "frobnicate"}, wantErr: errHelp},
		{name: "migrate defaults to up", args: []string{"admin", "migrate"}, wantGoose: []string{"up", "migrations"}},
		{name: "migrate up-to", args: []string{"admin", "migrate", "up-to", "2"}, wantGoose: []string{"up-to", "migrations", "2"}},
		{name: "seedlessons", args: []string{"admin", "seedlessons"}, wantSeeded: true},
		{name: "teachertoken: no subject", args: []string{"admin", "teachertoken"}, wantErr: errHelp},
		{name: "teachertoken", args: []string{"admin", "teachertoken", "-subject", "t@x.org"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gooseCalls = nil
			spy := &lessonSaverSpy{}
			cli := commandLine{conf: conf, lessonRepo: spy}

			err := cli.run(tt.args)
			if err != tt.wantErr {
				t.Fatalf("run() err = %v; want %v", err, tt.wantErr)
			}

			if tt.wantGoose != nil {
				if len(gooseCalls) != 1 {
					t.Fatalf("goose ran %d times; want once", len(gooseCalls))
				}
				got := gooseCalls[0]
				if len(got) != len(tt.wantGoose) {
					t.Fatalf("goose call = %v; want %v", got, tt.wantGoose)
				}
				for i := range got {
					if got[i] != tt.wantGoose[i] {
						t.Errorf("goose call = %v; want %v", got, tt.wantGoose)
						break
					}
				}
			}

			if tt.wantSeeded && len(spy.saved) != len(lesson.Fixtures()) {
				t.Errorf("seeded %d lessons; want %d", len(spy.saved), len(lesson.Fixtures()))
			}
		})
	}
}
