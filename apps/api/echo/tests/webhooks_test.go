package tests

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soundsteps/core/session"
	providersvc "github.com/trezcool/soundsteps/services/provider"
)

func voiceForm(sessionID, digits string) url.Values {
	form := url.Values{
		"sessionId":    {sessionID},
		"callerNumber": {"+254712345678"},
		"isActive":     {"1"},
		"direction":    {"inbound"},
	}
	if digits != "" {
		form.Set("dtmfDigits", digits)
	}
	return form
}

func Test_voiceWebhook(t *testing.T) {
	req, rec := newWebhookRequest("/webhooks/voice", voiceForm("ATCid_api_1", ""))
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, rec.Body.String(), "<Response>")
	assert.Contains(t, rec.Body.String(), "Welcome to SoundSteps")

	sess, err := sessionRepo.GetSessionByChannelID(session.ChannelVoice, "ATCid_api_1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusInProgress, sess.Status)
}

func Test_voiceWebhook_missingSessionID(t *testing.T) {
	req, rec := newWebhookRequest("/webhooks/voice", url.Values{"callerNumber": {"+254712345678"}})
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_voiceDTMFWebhook(t *testing.T) {
	// walk to the example gather state
	for i := 0; i < 3; i++ {
		req, rec := newWebhookRequest("/webhooks/voice", voiceForm("ATCid_api_2", ""))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req, rec := newWebhookRequest("/webhooks/voice/dtmf", voiceForm("ATCid_api_2", "2"))
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Correct! The answer is Five.")
}

func Test_voiceStatusWebhook(t *testing.T) {
	req, rec := newWebhookRequest("/webhooks/voice", voiceForm("ATCid_api_3", ""))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newWebhookRequest("/webhooks/voice/status", voiceForm("ATCid_api_3", ""))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := sessionRepo.GetSessionByChannelID(session.ChannelVoice, "ATCid_api_3")
	require.NoError(t, err)
	assert.Equal(t, session.StatusAbandoned, sess.Status)
	assert.True(t, sess.EndedAt.Valid)
}

func Test_smsWebhook_unknownSender(t *testing.T) {
	provider.Reset()

	form := url.Values{"from": {"+254700000001"}, "text": {"A"}}
	req, rec := newWebhookRequest("/webhooks/sms", form)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	actions := provider.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, providersvc.ActionText, actions[0].Kind)
	assert.Contains(t, actions[0].Body, "No active lesson found")
}

func Test_smsWebhook_missingFrom(t *testing.T) {
	req, rec := newWebhookRequest("/webhooks/sms", url.Values{"text": {"A"}})
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// A learner answers the whole quiz over the SMS webhook; the session completes
// and the reward pipeline pays out through the provider.
func Test_smsWebhook_fullQuiz(t *testing.T) {
	provider.Reset()
	phone := "+254733000222"
	token := getTeacherToken(t)

	body := marchallObj(t, map[string]string{"phone": phone, "lesson_id": "basic-addition-001"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/sms/start-lesson", token, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, answer := range []string{"B", "2"} {
		form := url.Values{"from": {phone}, "text": {answer}}
		req, rec := newWebhookRequest("/webhooks/sms", form)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// the pipeline runs on its own goroutine
	var sess session.Session
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for {
		sess, err = sessionRepo.GetSessionByChannelID(session.ChannelSMS, phone)
		require.NoError(t, err)
		if sess.IsTerminal() || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, session.StatusCompleted, sess.Status)
	assert.Equal(t, 2, sess.Score)

	assert.Eventually(t, func() bool {
		for _, a := range provider.Actions() {
			if a.Kind == providersvc.ActionAirtime && a.To == phone {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "learner airtime was not sent")

	var sawSummary bool
	for _, a := range provider.Actions() {
		if a.Kind == providersvc.ActionText && strings.Contains(a.Body, "Lesson Complete!") {
			sawSummary = true
		}
	}
	assert.True(t, sawSummary, "learner summary was not sent")
}
