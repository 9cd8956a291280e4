package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var healthGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_fortress",
	Subsystem: "client",
	Name:      "healthy",
	Help:      "Whether the session with the panel is up",
})

var healthChangeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "homekit_fortress",
	Subsystem: "client",
	Name:      "health_changes_total",
	Help:      "Session health changes",
}, []string{"healthy"})

var armStateGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_fortress",
	Subsystem: "alarm",
	Name:      "state",
	Help:      "HomeKit current state of the security system",
})

var alarmingGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_fortress",
	Subsystem: "alarm",
	Name:      "alarming",
	Help:      "Whether the panel is alarming",
})

var alarmZoneGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homekit_fortress",
	Subsystem: "alarm",
	Name:      "zone",
	Help:      "Zone that triggered the current alarm",
})

var commandCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "homekit_fortress",
	Subsystem: "client",
	Name:      "commands_total",
	Help:      "Commands sent to the panel",
}, []string{"command"})

var commandErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "homekit_fortress",
	Subsystem: "client",
	Name:      "command_errors_total",
	Help:      "Commands that failed to send or were not confirmed in time",
}, []string{"command"})
