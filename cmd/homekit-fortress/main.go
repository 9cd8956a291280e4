package main

import (
	"context"
	_ "embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/caarlos0/env/v11"
	fortress "github.com/caarlos0/homekit-fortress"
	logp "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed index.html
var index []byte

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "homekit",
})

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const manufacturer = "Fortress Security"

func main() {
	log.Info(
		"homekit-fortress",
		"version", version,
		"commit", commit,
		"date", date,
		"info", "Homekit bridge for Fortress Security total wifi alarm systems",
	)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(
			"could not parse env",
			"err",
			strings.TrimPrefix(strings.ReplaceAll(err.Error(), "; ", "\n"), "env: ")+"\n",
		)
	}
	if cfg.Debug {
		log.SetLevel(logp.DebugLevel)
	}

	var alarm *SecuritySystem
	cli := fortress.New(fortress.Config{
		Host:              cfg.Host,
		Port:              cfg.Port,
		HeartbeatInterval: cfg.HeartbeatInterval,
		LivenessTimeout:   cfg.LivenessTimeout,
		RetryAfterError:   cfg.RetryAfterError,
		Logger:            log.WithPrefix("fortress"),
		OnHealthChange: func(healthy bool) {
			healthGauge.Set(boolToFloat(healthy))
			healthChangeCounter.WithLabelValues(strconv.FormatBool(healthy)).Inc()
			log.Info("panel connection", "healthy", healthy)
			alarm.Notify()
		},
		OnStatusChange: func(status fortress.ArmStatus) {
			log.Info("panel status", "status", status)
			alarm.Notify()
		},
		OnAlarmChange: func(alarming bool, zone int) {
			alarmingGauge.Set(boolToFloat(alarming))
			alarmZoneGauge.Set(float64(zone))
			if alarming {
				log.Warn("alarm triggered", "zone", cfg.zoneName(zone))
			} else {
				log.Info("alarm cleared")
			}
			alarm.Notify()
		},
	})

	macAddr, err := fortress.MacAddress(cfg.Host)
	if err != nil {
		log.Warn(
			"could not get the mac address, needs 'cap_net_raw+ep' capabilities",
			"err", err,
		)
	}

	bridge := accessory.NewBridge(accessory.Info{
		Name:         "Alarm Bridge",
		Manufacturer: manufacturer,
		Firmware:     version,
	})

	alarm = NewSecuritySystem(accessory.Info{
		Name:         "Alarm",
		SerialNumber: macAddr,
		Manufacturer: manufacturer,
		Model:        "Total Wifi",
	}, cli, cfg.CommandTimeout)
	alarm.Id = 2

	done := make(chan struct{})
	go alarm.Run(done)

	if err := cli.Start(); err != nil {
		log.Fatal("could not start panel client", "err", err)
	}

	fs := hap.NewFsStore(cfg.DB)
	server, err := hap.NewServer(fs, bridge.A, alarm.A)
	if err != nil {
		log.Fatal("fail to create server", "error", err)
	}
	server.Addr = cfg.Address
	server.ServeMux().Handle("/metrics", promhttp.Handler())
	server.ServeMux().Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := "Unknown"
		if v := alarm.SecuritySystem.SecuritySystemCurrentState.Value(); cli.Status() != fortress.ArmStatusUnknown && v >= 0 && v <= 4 {
			state = [5]string{
				"Armed: Stay",
				"Armed: Away",
				"Armed: Night",
				"Disarmed",
				"Alarm Triggered",
			}[v]
		}

		current := cli.Alarm()
		tpl := template.Must(template.New("index").Parse(string(index)))
		_ = tpl.Execute(w, struct {
			State    string
			Healthy  bool
			Alarming bool
			Zone     string
		}{
			State:    state,
			Healthy:  cli.IsAllGood(),
			Alarming: current.Alarming,
			Zone:     cfg.zoneName(current.Zone),
		})
	}))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c
		log.Info("stopping server")
		signal.Stop(c)
		if err := cli.Stop(); err != nil {
			log.Error("could not stop panel client", "err", err)
		}
		close(done)
		cancel()
	}()

	log.Info("starting server", "addr", server.Addr)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to close server", "err", err)
	}
}
