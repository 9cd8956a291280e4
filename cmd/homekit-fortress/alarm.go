package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	fortress "github.com/caarlos0/homekit-fortress"
	"github.com/cenkalti/backoff/v4"
)

// Panel is what the accessory needs from the panel client.
type Panel interface {
	SendCommand(cmd fortress.Command) error
	Status() fortress.ArmStatus
	IsAlarming() bool
	IsAllGood() bool
}

type SecuritySystem struct {
	*accessory.A
	SecuritySystem *service.SecuritySystem
	Fault          *characteristic.StatusFault

	panel   Panel
	timeout time.Duration
	changes chan struct{}
}

func NewSecuritySystem(info accessory.Info, panel Panel, timeout time.Duration) *SecuritySystem {
	a := &SecuritySystem{
		panel:   panel,
		timeout: timeout,
		changes: make(chan struct{}, 1),
	}
	a.A = accessory.New(info, accessory.TypeSecuritySystem)

	a.SecuritySystem = service.NewSecuritySystem()
	a.AddS(a.SecuritySystem.S)

	a.Fault = characteristic.NewStatusFault()
	a.SecuritySystem.AddC(a.Fault.C)

	a.SecuritySystem.SecuritySystemTargetState.SetValueRequestFunc = a.updateHandler
	return a
}

// Notify asks for a refresh without blocking the caller.
func (a *SecuritySystem) Notify() {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

// Run refreshes the accessory whenever Notify is called, until done is
// closed.
func (a *SecuritySystem) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-a.changes:
			a.Refresh()
		}
	}
}

func (a *SecuritySystem) Refresh() {
	status, alarming, healthy := a.panel.Status(), a.panel.IsAlarming(), a.panel.IsAllGood()

	if v := boolToInt(!healthy); a.Fault.Value() != v {
		_ = a.Fault.SetValue(v)
		log.Info("alarm status", "fault", !healthy)
	}

	current := currentState(status, alarming)
	if current < 0 {
		return
	}
	armStateGauge.Set(float64(current))
	if a.SecuritySystem.SecuritySystemCurrentState.Value() != current {
		err := a.SecuritySystem.SecuritySystemCurrentState.SetValue(current)
		log.Info("set current state", "state", current, "err", err)
	}
	if target := targetState(status); target >= 0 && a.SecuritySystem.SecuritySystemTargetState.Value() != target {
		err := a.SecuritySystem.SecuritySystemTargetState.SetValue(target)
		log.Info("set target state", "state", target, "err", err)
	}
}

func (a *SecuritySystem) updateHandler(
	v interface{},
	_ *http.Request,
) (response interface{}, code int) {
	target, ok := v.(int)
	if !ok {
		return nil, hap.JsonStatusInvalidValueInRequest
	}
	cmd, ok := commandFor(target)
	if !ok {
		return nil, hap.JsonStatusResourceDoesNotExist
	}

	log.Info("set target state", "target", target, "cmd", cmd)
	commandCounter.WithLabelValues(cmd.String()).Inc()
	if err := a.panel.SendCommand(cmd); err != nil {
		commandErrorCounter.WithLabelValues(cmd.String()).Inc()
		log.Error("could not send command", "cmd", cmd, "err", err)
		return nil, hap.JsonStatusResourceBusy
	}

	// the panel never acknowledges commands, wait for it to report the new
	// status instead.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = a.timeout
	if err := backoff.Retry(func() error {
		if got := a.panel.Status(); got != cmd.Status() {
			return fmt.Errorf("panel is %s, waiting for %s", got, cmd.Status())
		}
		return nil
	}, bo); err != nil {
		commandErrorCounter.WithLabelValues(cmd.String()).Inc()
		log.Error("command was not confirmed", "cmd", cmd, "err", err)
		return nil, hap.JsonStatusResourceBusy
	}
	return nil, hap.JsonStatusSuccess
}
