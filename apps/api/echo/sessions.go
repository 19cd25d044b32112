package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/lesson"
	"github.com/trezcool/soundsteps/core/session"
)

const defaultSessionLimit = 50

type sessionApi struct {
	deps ServerDeps
}

// registerSessionAPI mounts the teacher dashboard endpoints; all of them
// require a teacher JWT.
func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{deps: deps}

	ag := g.Group("", jwt, teacherMiddleware())
	ag.POST("/sms/start-lesson", api.startLesson)
	ag.GET("/sms/progress/:phone", api.progress)
	ag.GET("/sessions", api.query)
	ag.GET("/sessions/stats", api.stats)
	ag.GET("/sessions/:id", api.retrieve)
	ag.POST("/sessions/outbound-call", api.outboundCall)
}

func (api *sessionApi) startLesson(ctx echo.Context) error {
	var data StartLessonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartLessonRequest")
	}
	if data.LessonID == "" {
		data.LessonID = api.deps.Conf.DefaultLessonID
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	total, err := api.deps.SMSEngine.Start(ctx.Request().Context(), data.Phone, data.LessonID)
	if err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "lesson_id", Error: "lesson not found"})
		}
		return errors.Wrap(err, "starting sms lesson")
	}

	return ctx.JSON(http.StatusOK, StartLessonResponse{
		Success:        true,
		Phone:          data.Phone,
		LessonID:       data.LessonID,
		TotalQuestions: total,
	})
}

func (api *sessionApi) progress(ctx echo.Context) error {
	phone := ctx.Param("phone")
	sess, err := api.deps.SMSEngine.Progress(phone)
	if err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) query(ctx echo.Context) error {
	limit := defaultSessionLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	sessions, err := api.deps.SessionRepo.QueryRecentSessions(limit)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

// stats aggregates the recent window for the dashboard headline numbers.
func (api *sessionApi) stats(ctx echo.Context) error {
	sessions, err := api.deps.SessionRepo.QueryRecentSessions(100)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}

	stats := SessionStats{TotalSessions: len(sessions)}
	var scoreSum int
	for _, s := range sessions {
		scoreSum += s.Score
		switch s.Status {
		case session.StatusCompleted:
			stats.CompletedSessions++
		case session.StatusInProgress:
			stats.ActiveSessions++
		}
	}
	if len(sessions) > 0 {
		stats.AverageScore = float64(scoreSum) / float64(len(sessions))
	}
	return ctx.JSON(http.StatusOK, stats)
}

// outboundCall dials the learner; the lesson itself is driven by the voice
// webhooks once the call connects.
func (api *sessionApi) outboundCall(ctx echo.Context) error {
	var data OutboundCallRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OutboundCallRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	res, err := api.deps.Provider.PlaceCall(ctx.Request().Context(), data.Phone, api.deps.Conf.AT.VoiceNumber)
	if err != nil {
		return errors.Wrap(err, "placing call")
	}
	return ctx.JSON(http.StatusOK, OutboundCallResponse{Success: true, Call: res})
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.deps.SessionRepo.GetSessionByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, sess)
}
