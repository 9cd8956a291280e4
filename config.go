package fortress

import (
	"time"

	logp "github.com/charmbracelet/log"
)

const (
	DefaultPort              = "12416"
	DefaultHeartbeatInterval = 4 * time.Second
	DefaultLivenessTimeout   = 9 * time.Second
	DefaultRetryAfterError   = 3 * time.Second
	DefaultTimeout           = 5 * time.Second
)

// Logger is the leveled logger the client reports to.
// *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
}

// Config configures a Client.
//
// Each callback has a single subscriber. Callbacks run synchronously, in
// the order the changes happened, and only when the value changes. They must
// return quickly.
type Config struct {
	Host string
	Port string

	HeartbeatInterval time.Duration
	LivenessTimeout   time.Duration
	RetryAfterError   time.Duration
	// Timeout bounds dialing and each write.
	Timeout time.Duration

	Logger Logger

	OnHealthChange func(healthy bool)
	OnStatusChange func(status ArmStatus)
	OnAlarmChange  func(alarming bool, zone int)
}

func (c Config) withDefaults() Config {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.LivenessTimeout <= 0 {
		c.LivenessTimeout = DefaultLivenessTimeout
	}
	if c.RetryAfterError <= 0 {
		c.RetryAfterError = DefaultRetryAfterError
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logp.Default().WithPrefix("fortress")
	}
	if c.OnHealthChange == nil {
		c.OnHealthChange = func(bool) {}
	}
	if c.OnStatusChange == nil {
		c.OnStatusChange = func(ArmStatus) {}
	}
	if c.OnAlarmChange == nil {
		c.OnAlarmChange = func(bool, int) {}
	}
	return c
}
