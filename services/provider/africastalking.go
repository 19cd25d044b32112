package providersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core"
)

const (
	liveAPIHost     = "https://api.africastalking.com"
	liveVoiceHost   = "https://voice.africastalking.com"
	sandboxAPIHost  = "https://api.sandbox.africastalking.com"
	sandboxUsername = "sandbox"
)

// atService is the live Africa's Talking client. It talks to the REST API
// directly: SMS and airtime on the API host, call initiation on the voice
// host.
type atService struct {
	conf     *core.Config
	client   *http.Client
	apiHost  string
	voiceURL string
}

var _ core.Provider = (*atService)(nil)

func NewAfricasTalkingService(conf *core.Config) core.Provider {
	apiHost := liveAPIHost
	if conf.AT.Username == sandboxUsername {
		apiHost = sandboxAPIHost
	}
	return &atService{
		conf:     conf,
		client:   &http.Client{Timeout: 30 * time.Second},
		apiHost:  apiHost,
		voiceURL: liveVoiceHost + "/call",
	}
}

func (svc *atService) SendText(ctx context.Context, to, body string) (core.ProviderResult, error) {
	form := url.Values{
		"username": {svc.conf.AT.Username},
		"to":       {to},
		"message":  {body},
	}
	if svc.conf.AT.SenderID != "" {
		form.Set("from", svc.conf.AT.SenderID)
	}

	var resp struct {
		SMSMessageData struct {
			Recipients []struct {
				MessageId string `json:"messageId"`
				Status    string `json:"status"`
			} `json:"Recipients"`
		} `json:"SMSMessageData"`
	}
	if err := svc.post(ctx, svc.apiHost+"/version1/messaging", form, &resp); err != nil {
		return core.ProviderResult{}, errors.Wrap(err, "sending sms")
	}
	res := core.ProviderResult{Status: "Sent"}
	if rs := resp.SMSMessageData.Recipients; len(rs) > 0 {
		res.ID = rs[0].MessageId
		res.Status = rs[0].Status
	}
	return res, nil
}

func (svc *atService) PlaceCall(ctx context.Context, to, from string) (core.ProviderResult, error) {
	if from == "" {
		from = svc.conf.AT.VoiceNumber
	}
	form := url.Values{
		"username": {svc.conf.AT.Username},
		"to":       {to},
		"from":     {from},
	}

	var resp struct {
		Entries []struct {
			SessionId string `json:"sessionId"`
			Status    string `json:"status"`
		} `json:"entries"`
	}
	if err := svc.post(ctx, svc.voiceURL, form, &resp); err != nil {
		return core.ProviderResult{}, errors.Wrap(err, "placing call")
	}
	res := core.ProviderResult{Status: "Queued"}
	if len(resp.Entries) > 0 {
		res.ID = resp.Entries[0].SessionId
		res.Status = resp.Entries[0].Status
	}
	return res, nil
}

func (svc *atService) SendAirtime(ctx context.Context, to, amount, currency string) (core.ProviderResult, error) {
	recipients, err := json.Marshal([]map[string]string{
		{"phoneNumber": to, "amount": fmt.Sprintf("%s %s", currency, amount)},
	})
	if err != nil {
		return core.ProviderResult{}, errors.Wrap(err, "encoding airtime recipients")
	}
	form := url.Values{
		"username":   {svc.conf.AT.Username},
		"recipients": {string(recipients)},
	}

	var resp struct {
		Responses []struct {
			RequestId string `json:"requestId"`
			Status    string `json:"status"`
		} `json:"responses"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err = svc.post(ctx, svc.apiHost+"/version1/airtime/send", form, &resp); err != nil {
		return core.ProviderResult{}, errors.Wrap(err, "sending airtime")
	}
	if resp.ErrorMessage != "" && resp.ErrorMessage != "None" {
		return core.ProviderResult{}, errors.Errorf("airtime rejected: %s", resp.ErrorMessage)
	}
	res := core.ProviderResult{Status: "Sent"}
	if len(resp.Responses) > 0 {
		res.ID = resp.Responses[0].RequestId
		res.Status = resp.Responses[0].Status
	}
	return res, nil
}

func (svc *atService) post(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", svc.conf.AT.ApiKey)

	resp, err := svc.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("provider returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
