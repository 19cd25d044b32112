package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core/voice"
)

type webhookApi struct {
	deps ServerDeps
}

// registerWebhookAPI mounts the telephony provider callbacks. The provider
// posts urlencoded forms and, for voice, speaks whatever markup document we
// answer with.
func registerWebhookAPI(g *echo.Group, deps ServerDeps) {
	api := webhookApi{deps: deps}

	g.POST("/voice", api.voiceEvent)
	g.POST("/voice/dtmf", api.voiceDigits)
	g.POST("/voice/status", api.voiceStatus)
	g.POST("/sms", api.smsReply)
}

func (api *webhookApi) bindCallEvent(ctx echo.Context) voice.CallEvent {
	return voice.CallEvent{
		SessionID:   ctx.FormValue("sessionId"),
		CallerPhone: ctx.FormValue("callerNumber"),
		IsActive:    ctx.FormValue("isActive"),
		DTMFDigits:  ctx.FormValue("dtmfDigits"),
		Direction:   ctx.FormValue("direction"),
	}
}

func (api *webhookApi) voiceEvent(ctx echo.Context) error {
	ev := api.bindCallEvent(ctx)
	if ev.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}
	doc := api.deps.VoiceEngine.HandleEvent(ev)
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(doc))
}

func (api *webhookApi) voiceDigits(ctx echo.Context) error {
	ev := api.bindCallEvent(ctx)
	if ev.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}
	doc := api.deps.VoiceEngine.HandleDigits(ev)
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(doc))
}

// voiceStatus receives the final call status notification; a call that ends
// mid-lesson leaves its session abandoned.
func (api *webhookApi) voiceStatus(ctx echo.Context) error {
	ev := api.bindCallEvent(ctx)
	if ev.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}
	ev.IsActive = "0"
	_ = api.deps.VoiceEngine.HandleEvent(ev)
	return ctx.NoContent(http.StatusOK)
}

func (api *webhookApi) smsReply(ctx echo.Context) error {
	phone := ctx.FormValue("from")
	text := ctx.FormValue("text")
	if phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from is required")
	}
	if err := api.deps.SMSEngine.HandleReply(ctx.Request().Context(), phone, text); err != nil {
		return errors.Wrap(err, "handling sms reply")
	}
	return ctx.NoContent(http.StatusOK)
}
