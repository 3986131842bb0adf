package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/wifiprov/internal/provisioner"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/store"
)

// Run command and flags
var (
	scenarioPath string
	statePath    string
	tickInterval time.Duration
	logLevel     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a simulated device",
	Long: `Start the provisioning state machine against a simulated radio.

The scenario file describes the device configuration and the networks
visible to the radio. Without a scenario, the simulator starts with an
empty environment and default device settings, which lands it in
provisioning mode with the portal on localhost.

Device state (credentials, reset secret, boot record) is written to the
state file, so stopping and restarting the simulator behaves like
power-cycling a device.`,
	Example: `  # Start with defaults: portal on http://127.0.0.1:8080
  wifiprov-sim run

  # Run a scenario with visible networks and custom device settings
  wifiprov-sim run --scenario scenario.yaml

  # Persist device state across runs and slow the tick rate
  wifiprov-sim run --state device.yaml --tick 100ms

  # Verbose state machine logging
  wifiprov-sim run --log-level debug`,
	RunE: runSim,
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML file (optional)")
	runCmd.Flags().StringVar(&statePath, "state", "", "Path to device state file (defaults to in-memory state)")
	runCmd.Flags().DurationVar(&tickInterval, "tick", 50*time.Millisecond, "Interval between state machine ticks")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; empty = silent)")
}

// scenarioFile is the on-disk simulation description.
type scenarioFile struct {
	Version  int              `yaml:"version"`
	Device   deviceSection    `yaml:"device"`
	Networks []networkSection `yaml:"networks,omitempty"`
}

// deviceSection mirrors the provisioner builder options. Durations are
// Go duration strings ("3s", "5m"). Zero values keep the defaults.
type deviceSection struct {
	APName        string `yaml:"ap_name,omitempty"`
	APPassword    string `yaml:"ap_password,omitempty"`
	APTimeout     string `yaml:"ap_timeout,omitempty"`
	MaxRetries    int    `yaml:"max_retries,omitempty"`
	RetryDelay    string `yaml:"retry_delay,omitempty"`
	JoinTimeout   string `yaml:"join_timeout,omitempty"`
	AutoWipe      *bool  `yaml:"auto_wipe,omitempty"`
	HTTPReset     bool   `yaml:"http_reset,omitempty"`
	HTTPResetAuth bool   `yaml:"http_reset_auth,omitempty"`
	MDNSName      string `yaml:"mdns_name,omitempty"`
	MDNSPort      int    `yaml:"mdns_port,omitempty"`
	DoubleReboot  string `yaml:"double_reboot_window,omitempty"`
	HTTPAddr      string `yaml:"http_addr,omitempty"`
	DNSAddr       string `yaml:"dns_addr,omitempty"`
}

// networkSection is one network visible to the simulated radio.
type networkSection struct {
	SSID     string `yaml:"ssid"`
	RSSI     int    `yaml:"rssi"`
	Password string `yaml:"password,omitempty"`
}

func loadScenario(path string) (*scenarioFile, error) {
	if path == "" {
		return &scenarioFile{Version: 1}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc scenarioFile
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	if sc.Version != 0 && sc.Version != 1 {
		return nil, fmt.Errorf("unsupported scenario version: %d (expected 1)", sc.Version)
	}

	return &sc, nil
}

// buildConfig maps the scenario's device section onto the builder,
// keeping defaults for anything unset. The simulator binds to loopback
// high ports unless the scenario says otherwise.
func buildConfig(d deviceSection) (provisioner.Config, error) {
	b := provisioner.NewBuilder().
		HTTPAddr("127.0.0.1:8080").
		DNSAddr("127.0.0.1:5353").
		LogLevel(logLevel)

	if d.APName != "" {
		b.APName(d.APName)
	}
	if d.APPassword != "" {
		b.APPassword(d.APPassword)
	}
	if d.MaxRetries > 0 {
		b.MaxRetries(d.MaxRetries)
	}
	if d.AutoWipe != nil {
		b.AutoWipeOnMaxRetries(*d.AutoWipe)
	}
	if d.HTTPResetAuth {
		b.EnableAuthenticatedHTTPReset()
	} else if d.HTTPReset {
		b.EnableHTTPReset()
	}
	if d.MDNSName != "" {
		b.EnableMDNS(d.MDNSName)
	}
	if d.MDNSPort > 0 {
		b.MDNSPort(d.MDNSPort)
	}
	if d.HTTPAddr != "" {
		b.HTTPAddr(d.HTTPAddr)
	}
	if d.DNSAddr != "" {
		b.DNSAddr(d.DNSAddr)
	}

	durations := []struct {
		raw   string
		apply func(time.Duration) *provisioner.Builder
	}{
		{d.APTimeout, b.APTimeout},
		{d.RetryDelay, b.RetryDelay},
		{d.JoinTimeout, b.JoinTimeout},
		{d.DoubleReboot, b.EnableDoubleRebootDetect},
	}
	for _, dur := range durations {
		if dur.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(dur.raw)
		if err != nil {
			return provisioner.Config{}, fmt.Errorf("invalid duration %q: %w", dur.raw, err)
		}
		dur.apply(parsed)
	}

	return b.Build()
}

// simSystem satisfies the restart capability by signalling the run loop
// instead of rebooting anything.
type simSystem struct {
	once      sync.Once
	restarted chan struct{}
}

func newSimSystem() *simSystem {
	return &simSystem{restarted: make(chan struct{})}
}

func (s *simSystem) Restart() {
	s.once.Do(func() { close(s.restarted) })
}

// Output styles
var (
	stateStyles = map[provisioner.State]lipgloss.Style{
		provisioner.StateConnecting:         lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		provisioner.StateRetryWait:          lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		provisioner.StateConnected:          lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D")).Bold(true),
		provisioner.StateProvisioning:       lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")),
		provisioner.StateProvisioningActive: lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
	}
	defaultStateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	detailStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	eventStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
)

func printState(p *provisioner.Provisioner, cfg provisioner.Config) {
	s := p.State()
	style, ok := stateStyles[s]
	if !ok {
		style = defaultStateStyle
	}

	line := style.Render(s.String())
	switch s {
	case provisioner.StateConnected:
		line += detailStyle.Render(fmt.Sprintf("  ssid=%s ip=%s", p.SSID(), p.IP()))
	case provisioner.StateProvisioningActive:
		line += detailStyle.Render(fmt.Sprintf("  portal=http://%s/", cfg.HTTPAddr))
	}
	fmt.Println(line)
}

func runSim(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(scenarioPath)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(sc.Device)
	if err != nil {
		return fmt.Errorf("invalid device configuration: %w", err)
	}

	var kv store.Store
	if statePath != "" {
		kv = store.NewFile(statePath)
	} else {
		kv = store.NewMemory()
	}

	sim := radio.NewSimulated()
	for _, n := range sc.Networks {
		sim.AddNetwork(n.SSID, n.RSSI, n.Password)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(detailStyle.Render(fmt.Sprintf("simulator started  tick=%s networks=%d", tickInterval, len(sc.Networks))))

	// Each iteration of the outer loop is one simulated boot.
	for {
		sys := newSimSystem()
		p, err := provisioner.New(cfg, provisioner.Deps{
			Radio:  sim,
			Store:  kv,
			System: sys,
		}, provisioner.Hooks{
			OnConnected: func() {
				fmt.Println(eventStyle.Render("event") + detailStyle.Render("  connected"))
			},
			OnFailed: func(retries int) {
				fmt.Println(eventStyle.Render("event") + detailStyle.Render(fmt.Sprintf("  join failed after %d retries", retries)))
			},
			OnAPMode: func(ssid, ip string) {
				fmt.Println(eventStyle.Render("event") + detailStyle.Render(fmt.Sprintf("  access point up  ssid=%s ip=%s", ssid, ip)))
			},
			OnReset: func() {
				fmt.Println(eventStyle.Render("event") + detailStyle.Render("  factory reset"))
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create provisioner: %w", err)
		}

		if err := p.Begin(); err != nil {
			return fmt.Errorf("failed to start provisioner: %w", err)
		}

		last := p.State()
		printState(p, cfg)

		ticker := time.NewTicker(tickInterval)
		rebooted := false
		for !rebooted {
			select {
			case <-ctx.Done():
				ticker.Stop()
				p.Close()
				fmt.Println(detailStyle.Render("simulator stopped"))
				return nil
			case <-sys.restarted:
				rebooted = true
			case <-ticker.C:
				p.Tick()
				if s := p.State(); s != last {
					last = s
					printState(p, cfg)
				}
			}
		}
		ticker.Stop()
		p.Close()

		fmt.Println(eventStyle.Render("event") + detailStyle.Render("  device restarted"))
	}
}
