package reward

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/lesson"
	"github.com/trezcool/soundsteps/core/session"
)

type Step string

const (
	StepPersist          Step = "persist"
	StepCaregiverSummary Step = "caregiver-summary"
	StepLearnerSummary   Step = "learner-summary"
	StepLearnerReward    Step = "learner-reward"
	StepCaregiverReward  Step = "caregiver-reward"
	StepOperatorReport   Step = "operator-report"
)

type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped" // a normal non-outcome, not a failure
	StepFailed  StepStatus = "failed"
)

type (
	StepResult struct {
		Step   Step       `json:"step"`
		Status StepStatus `json:"status"`
		Detail string     `json:"detail,omitempty"`
	}

	// Report is the pipeline's per-step outcome. Steps are independent and
	// individually failable; partial completion is the normal case with real
	// telephony providers, never an exception.
	Report struct {
		SessionID string       `json:"session_id"`
		Score     int          `json:"score"`
		Total     int          `json:"total"`
		Percent   int          `json:"percent"`
		Steps     []StepResult `json:"steps"`
	}

	// Pipeline runs the post-lesson side effects: terminal persistence,
	// caregiver/learner notifications, tiered airtime, operator report.
	Pipeline struct {
		conf     *core.Config
		sessions session.Repository
		provider core.Provider
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

func (r *Report) add(step Step, status StepStatus, detail string) {
	r.Steps = append(r.Steps, StepResult{Step: step, Status: status, Detail: detail})
}

// StepResult returns the recorded result for a step, if the step ran.
func (r Report) StepResult(step Step) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s, true
		}
	}
	return StepResult{}, false
}

func NewPipeline(
	conf *core.Config,
	sessions session.Repository,
	provider core.Provider,
	mailSvc core.EmailService,
	logger core.Logger,
) *Pipeline {
	return &Pipeline{
		conf:     conf,
		sessions: sessions,
		provider: provider,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Complete satisfies the flow engines' Completer contract.
func (p *Pipeline) Complete(sess session.Session, l lesson.Lesson) {
	p.Run(context.Background(), sess, l)
}

// Run executes every step regardless of earlier failures and returns the
// aggregate report. Nothing is rolled back or retried here; retries are the
// caller's business.
func (p *Pipeline) Run(ctx context.Context, sess session.Session, l lesson.Lesson) Report {
	total := len(l.Questions)
	var rawPercent float64
	if total > 0 {
		rawPercent = float64(sess.Score) / float64(total) * 100
	}
	// thresholds compare the raw percentage; the rounded value is display only
	percent := int(math.Round(rawPercent))
	passed := rawPercent >= float64(p.conf.Reward.PassPercent)

	report := Report{SessionID: sess.ID, Score: sess.Score, Total: total, Percent: percent}

	// 1. terminal persistence; the engines normally flip the status before
	// invoking the pipeline, this backstops direct invocations
	if !sess.IsTerminal() {
		_ = sess.End(session.StatusCompleted, time.Now())
	}
	if _, err := p.sessions.UpdateSession(sess); err != nil {
		p.fail(&report, StepPersist, err, sess)
	} else {
		report.add(StepPersist, StepOK, "")
	}

	// 2. caregiver summary
	if phone := sess.CaregiverPhone.String; sess.CaregiverPhone.Valid && phone != "" {
		body := caregiverSummary(p.conf.CaregiverSMSLang, sess.LearnerPhone, l.Title, sess.Score, total, percent, passed)
		if _, err := p.provider.SendText(ctx, phone, body); err != nil {
			p.fail(&report, StepCaregiverSummary, err, sess)
		} else {
			report.add(StepCaregiverSummary, StepOK, phone)
		}
	} else {
		report.add(StepCaregiverSummary, StepSkipped, "no caregiver phone")
	}

	// 3. learner completion message (sms channel only; voice learners hear
	// their score in the wrap state)
	if sess.Channel == session.ChannelSMS {
		body := learnerSummary(l.Title, sess.Score, total, percent, passed)
		if _, err := p.provider.SendText(ctx, sess.LearnerPhone, body); err != nil {
			p.fail(&report, StepLearnerSummary, err, sess)
		} else {
			report.add(StepLearnerSummary, StepOK, sess.LearnerPhone)
		}
	} else {
		report.add(StepLearnerSummary, StepSkipped, "voice channel")
	}

	// 4. tiered airtime
	tier := tierIndex(p.conf.Reward, rawPercent)
	if tier < 0 {
		report.add(StepLearnerReward, StepSkipped, "score below reward threshold")
		report.add(StepCaregiverReward, StepSkipped, "score below reward threshold")
	} else {
		p.dispatchReward(ctx, &report, StepLearnerReward, sess, sess.LearnerPhone, p.conf.Reward.LearnerAmounts[tier], false)

		if p.conf.Reward.RewardCaregiver && sess.CaregiverPhone.Valid && sess.CaregiverPhone.String != "" {
			p.dispatchReward(ctx, &report, StepCaregiverReward, sess, sess.CaregiverPhone.String, p.conf.Reward.CaregiverAmounts[tier], true)
		} else {
			report.add(StepCaregiverReward, StepSkipped, "no caregiver phone")
		}
	}

	// 5. operator report
	if p.conf.OperatorEmail != "" && p.mailSvc != nil {
		p.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Address: p.conf.OperatorEmail}},
			Subject: fmt.Sprintf("Lesson completed: %s", l.Title),
			TextContent: fmt.Sprintf(
				"Learner %s completed %q over %s with a score of %d/%d (%d%%).",
				sess.LearnerPhone, l.Title, sess.Channel, sess.Score, total, percent,
			),
		})
		report.add(StepOperatorReport, StepOK, p.conf.OperatorEmail)
	} else {
		report.add(StepOperatorReport, StepSkipped, "no operator email configured")
	}

	return report
}

func (p *Pipeline) dispatchReward(ctx context.Context, report *Report, step Step, sess session.Session, phone, amount string, caregiver bool) {
	if _, err := p.provider.SendAirtime(ctx, phone, amount, p.conf.Reward.Currency); err != nil {
		p.fail(report, step, err, sess)
		return
	}
	report.add(step, StepOK, fmt.Sprintf("%s %s", p.conf.Reward.Currency, amount))

	// confirmation is best-effort; a failed text does not undo the airtime
	if _, err := p.provider.SendText(ctx, phone, rewardConfirmation(amount, p.conf.Reward.Currency, caregiver)); err != nil {
		p.logger.Error(fmt.Sprintf("sending reward confirmation: %v", err), err, phone)
	}
}

func (p *Pipeline) fail(report *Report, step Step, err error, sess session.Session) {
	report.add(step, StepFailed, err.Error())
	p.logger.Error(
		fmt.Sprintf("completion step %s failed: %v", step, err),
		errors.Wrapf(err, "session %s", sess.ID),
		sess.LearnerPhone,
	)
}

// tierIndex maps an unrounded percentage onto the configured tier table:
// 0 high, 1 mid, 2 low, -1 no reward.
func tierIndex(rc core.RewardConfig, percent float64) int {
	switch {
	case percent >= float64(rc.HighPercent):
		return 0
	case percent >= float64(rc.MidPercent):
		return 1
	case percent >= float64(rc.LowPercent):
		return 2
	default:
		return -1
	}
}
