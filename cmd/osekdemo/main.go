// osekdemo wires a small static configuration together and drives the
// kernel's timer tick from a host ticker: load config, start, block until
// interrupted, shut down in a deferred LIFO chain.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bgp59/logrusx"

	"github.com/elupus/osek-go/config"
	"github.com/elupus/osek-go/osek"
)

var (
	configFileArg = flag.String(
		"config",
		"osekdemo-config.yaml",
		`Static kernel configuration file`,
	)
	tickIntervalArg = flag.Duration(
		"tick-interval",
		10*time.Millisecond,
		`Host wall-clock interval driving the kernel's system timer counter`,
	)
)

func init() {
	logrusx.EnableLoggerArgs()
}

var mainLog = osek.NewCompLogger("main")

// demoTasks are the entry points referenced by name from the config file's
// tasks section. They close over the kernel so they can use the service
// API themselves.
func demoTasks(k *osek.Kernel, done chan<- string) map[string]func() {
	return map[string]func(){
		"Background": func() {
			mainLog.Info("background: idle loop tick")
		},
		"Sampler": func() {
			id, _ := k.GetTaskID()
			mainLog.Infof("sampler: running as task %d", id)
			done <- "sampler"
		},
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	if !flag.Parsed() {
		flag.Parse()
	}

	spec, err := config.Load(*configFileArg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config file: %v\n", err)
		return 1
	}

	loggerCfg := osek.DefaultLoggerConfig()
	logrusx.ApplySetLoggerArgs((*logrusx.LoggerConfig)(loggerCfg))
	if err := osek.SetLogger(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error setting the logger: %v\n", err)
		return 1
	}

	k := osek.NewKernel()
	done := make(chan string, 8)
	cfg, err := spec.Build(demoTasks(k, done))
	if err != nil {
		mainLog.Errorf("error building kernel config: %v", err)
		return 1
	}

	if status := k.Init(cfg); status != osek.EOk {
		mainLog.Errorf("kernel init failed: %s", status)
		return 1
	}
	k.SetPort(osek.NewGoroutinePort(k))

	// Arm the sampler's cyclic alarm: first fire 10 ticks out, then every
	// 100 ticks.
	for i, a := range cfg.Alarms {
		if a.Name == "SamplerAlarm" {
			if status := k.SetRelAlarm(osek.AlarmID(i), 10, 100); status != osek.EOk {
				mainLog.Errorf("error arming %s: %s", a.Name, status)
				return 1
			}
		}
	}

	// Start never returns until Shutdown, so it runs on its own goroutine;
	// this goroutine stays free to drive TimerTick and watch for the
	// shutdown signal.
	startErr := make(chan osek.Status, 1)
	go func() { startErr <- k.Start() }()
	defer k.Shutdown()

	var systemTimer osek.CounterID
	for i, c := range cfg.Counters {
		if c.Name == "SystemTimer" {
			systemTimer = osek.CounterID(i)
		}
	}

	ticker := time.NewTicker(*tickIntervalArg)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	mainLog.Info("started")
	for {
		select {
		case status := <-startErr:
			mainLog.Errorf("kernel start failed: %s", status)
			return 1
		case sig := <-sigChan:
			mainLog.Warnf("%s signal received, shutting down", sig)
			return 0
		case <-ticker.C:
			k.TimerTick(systemTimer)
		case id := <-done:
			mainLog.Infof("%s reported done", id)
		}
	}
}
