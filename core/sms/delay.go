package sms

import "time"

// Delayer schedules a one-shot deferred task. The intro -> first-question
// delay is a best-effort ordering hint towards the handset, not a
// correctness requirement; tests inject an immediate implementation.
type Delayer interface {
	After(d time.Duration, fn func())
}

type timerDelayer struct{}

func NewTimerDelayer() Delayer { return timerDelayer{} }

func (timerDelayer) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// ImmediateDelayer runs tasks synchronously; used in tests and the admin demo.
type ImmediateDelayer struct{}

func (ImmediateDelayer) After(_ time.Duration, fn func()) { fn() }
