package main

import (
	"time"

	echoapi "github.com/trezcool/soundsteps/apps/api/echo"
	"github.com/trezcool/soundsteps/core"
)

func (cli *commandLine) teacherToken(subject, username string) error {
	subject = core.CleanString(subject, true /* lower */)
	claims := echoapi.GetTeacherClaims(cli.conf, subject, core.CleanString(username))

	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	logger.Printf("token for %q (expires %s):\n%s", subject, time.Unix(claims.StandardClaims.ExpiresAt, 0).UTC(), token)
	return nil
}
