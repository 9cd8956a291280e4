package main

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	fortress "github.com/caarlos0/homekit-fortress"
	"github.com/stretchr/testify/require"
)

type fakePanel struct {
	mu       sync.Mutex
	status   fortress.ArmStatus
	alarming bool
	healthy  bool
	sent     []fortress.Command
	obey     bool
	err      error
}

func (p *fakePanel) SendCommand(cmd fortress.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, cmd)
	if p.obey {
		p.status = cmd.Status()
	}
	return nil
}

func (p *fakePanel) Status() fortress.ArmStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *fakePanel) IsAlarming() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alarming
}

func (p *fakePanel) IsAllGood() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy
}

func newTestSecuritySystem(panel Panel) *SecuritySystem {
	return NewSecuritySystem(accessory.Info{Name: "Alarm"}, panel, 200*time.Millisecond)
}

func TestUpdateHandler(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		panel := &fakePanel{status: fortress.ArmStatusDisarmed, healthy: true, obey: true}
		a := newTestSecuritySystem(panel)

		_, code := a.updateHandler(characteristic.SecuritySystemTargetStateAwayArm, nil)
		require.Equal(t, hap.JsonStatusSuccess, code)
		require.Equal(t, []fortress.Command{fortress.CommandArm}, panel.sent)
	})

	t.Run("not confirmed", func(t *testing.T) {
		panel := &fakePanel{status: fortress.ArmStatusDisarmed, healthy: true}
		a := newTestSecuritySystem(panel)

		_, code := a.updateHandler(characteristic.SecuritySystemTargetStateStayArm, nil)
		require.Equal(t, hap.JsonStatusResourceBusy, code)
		require.Equal(t, []fortress.Command{fortress.CommandStayArm}, panel.sent)
	})

	t.Run("send fails", func(t *testing.T) {
		panel := &fakePanel{err: errors.New("not connected")}
		a := newTestSecuritySystem(panel)

		_, code := a.updateHandler(characteristic.SecuritySystemTargetStateDisarm, nil)
		require.Equal(t, hap.JsonStatusResourceBusy, code)
	})

	t.Run("unknown target", func(t *testing.T) {
		panel := &fakePanel{}
		a := newTestSecuritySystem(panel)

		_, code := a.updateHandler(42, nil)
		require.Equal(t, hap.JsonStatusResourceDoesNotExist, code)
		_, code = a.updateHandler("away", nil)
		require.Equal(t, hap.JsonStatusInvalidValueInRequest, code)
		require.Empty(t, panel.sent)
	})
}

func TestRefresh(t *testing.T) {
	panel := &fakePanel{status: fortress.ArmStatusStayArmed, healthy: true}
	a := newTestSecuritySystem(panel)

	a.Refresh()
	require.Equal(t, characteristic.SecuritySystemCurrentStateStayArm, a.SecuritySystem.SecuritySystemCurrentState.Value())
	require.Equal(t, characteristic.SecuritySystemTargetStateStayArm, a.SecuritySystem.SecuritySystemTargetState.Value())
	require.Equal(t, 0, a.Fault.Value())

	panel.mu.Lock()
	panel.alarming = true
	panel.mu.Unlock()
	a.Refresh()
	require.Equal(t, characteristic.SecuritySystemCurrentStateAlarmTriggered, a.SecuritySystem.SecuritySystemCurrentState.Value())

	panel.mu.Lock()
	panel.healthy = false
	panel.status = fortress.ArmStatusUnknown
	panel.alarming = false
	panel.mu.Unlock()
	a.Refresh()
	require.Equal(t, 1, a.Fault.Value())
	require.Equal(t, characteristic.SecuritySystemCurrentStateAlarmTriggered, a.SecuritySystem.SecuritySystemCurrentState.Value())
}

func TestNotifyDoesNotBlock(t *testing.T) {
	a := newTestSecuritySystem(&fakePanel{status: fortress.ArmStatusDisarmed})
	for i := 0; i < 10; i++ {
		a.Notify()
	}

	done := make(chan struct{})
	go a.Run(done)
	require.Eventually(t, func() bool {
		return a.SecuritySystem.SecuritySystemCurrentState.Value() == characteristic.SecuritySystemCurrentStateDisarmed
	}, time.Second, 5*time.Millisecond)
	close(done)
}
