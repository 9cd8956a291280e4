package main

import (
	"fmt"
	"time"

	"github.com/brutella/hap/characteristic"
	fortress "github.com/caarlos0/homekit-fortress"
)

type Config struct {
	Host              string        `env:"HOST,notEmpty"`
	Port              string        `env:"PORT"               envDefault:"12416"`
	Address           string        `env:"LISTEN"             envDefault:":9009"`
	DB                string        `env:"DB"                 envDefault:"./db"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"4s"`
	LivenessTimeout   time.Duration `env:"LIVENESS_TIMEOUT"   envDefault:"9s"`
	RetryAfterError   time.Duration `env:"RETRY_AFTER_ERROR"  envDefault:"3s"`
	CommandTimeout    time.Duration `env:"COMMAND_TIMEOUT"    envDefault:"10s"`
	ZoneNames         []string      `env:"ZONE_NAMES"`
	Debug             bool          `env:"DEBUG"`
}

func (c Config) zoneName(n int) string {
	names := c.ZoneNames
	if n > 0 && len(names) > n-1 {
		if n := names[n-1]; n != "" {
			return n
		}
	}
	return fmt.Sprintf("Zone %d", n)
}

// currentState maps the panel state to a HomeKit current state, or -1 if the
// panel state is not known yet.
func currentState(status fortress.ArmStatus, alarming bool) int {
	if alarming {
		return characteristic.SecuritySystemCurrentStateAlarmTriggered
	}
	switch status {
	case fortress.ArmStatusArmed:
		return characteristic.SecuritySystemCurrentStateAwayArm
	case fortress.ArmStatusStayArmed:
		return characteristic.SecuritySystemCurrentStateStayArm
	case fortress.ArmStatusDisarmed:
		return characteristic.SecuritySystemCurrentStateDisarmed
	default:
		return -1
	}
}

// targetState maps the panel status to a HomeKit target state, or -1.
func targetState(status fortress.ArmStatus) int {
	switch status {
	case fortress.ArmStatusArmed:
		return characteristic.SecuritySystemTargetStateAwayArm
	case fortress.ArmStatusStayArmed:
		return characteristic.SecuritySystemTargetStateStayArm
	case fortress.ArmStatusDisarmed:
		return characteristic.SecuritySystemTargetStateDisarm
	default:
		return -1
	}
}

// commandFor maps a HomeKit target state to a panel command.
// The panel has no night mode, so night arms in stay mode.
func commandFor(target int) (fortress.Command, bool) {
	switch target {
	case characteristic.SecuritySystemTargetStateStayArm,
		characteristic.SecuritySystemTargetStateNightArm:
		return fortress.CommandStayArm, true
	case characteristic.SecuritySystemTargetStateAwayArm:
		return fortress.CommandArm, true
	case characteristic.SecuritySystemTargetStateDisarm:
		return fortress.CommandDisarm, true
	default:
		return 0, false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
