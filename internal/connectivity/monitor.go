package connectivity

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"marquee/internal/config"
	"marquee/internal/logging"
)

// settleDelay lets interface changes finish before re-probing.
const settleDelay = time.Second

// DialFunc opens a connection; it matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Static is a fixed connectivity answer.
type Static bool

// Online reports the fixed state.
func (s Static) Online() bool { return bool(s) }

// Options configure a Monitor.
type Options struct {
	Address  string
	Timeout  time.Duration
	Interval time.Duration
	Netlink  bool
	Dial     DialFunc
	Logger   *slog.Logger
}

// Monitor probes reachability and publishes transitions.
type Monitor struct {
	address    string
	timeout    time.Duration
	interval   time.Duration
	useNetlink bool
	dial       DialFunc
	logger     *slog.Logger

	online   atomic.Bool
	restored chan struct{}
	trigger  chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	conn    *netlink.UEventConn
}

// New builds a Monitor. It reports online until the first probe says
// otherwise.
func New(opts Options) *Monitor {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dial := opts.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	m := &Monitor{
		address:    opts.Address,
		timeout:    timeout,
		interval:   opts.Interval,
		useNetlink: opts.Netlink,
		dial:       dial,
		logger:     logging.NewComponentLogger(opts.Logger, "connectivity"),
		restored:   make(chan struct{}, 1),
		trigger:    make(chan struct{}, 1),
	}
	m.online.Store(true)
	return m
}

// NewFromConfig builds a Monitor from the [connectivity] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Monitor {
	return New(Options{
		Address:  cfg.Connectivity.ProbeAddress,
		Timeout:  cfg.ProbeTimeout(),
		Interval: cfg.ProbeInterval(),
		Netlink:  cfg.Connectivity.Netlink,
		Logger:   logger,
	})
}

// Online reports the most recent probe result.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Restored delivers one value per offline-to-online transition. Unread
// signals coalesce into one.
func (m *Monitor) Restored() <-chan struct{} {
	return m.restored
}

// Trigger requests an immediate re-probe from the running loop.
func (m *Monitor) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Probe dials the configured address, records the result, and signals
// Restored when the state flips from offline to online.
func (m *Monitor) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	conn, err := m.dial(probeCtx, "tcp", m.address)
	reachable := err == nil
	if conn != nil {
		_ = conn.Close()
	}

	was := m.online.Swap(reachable)
	switch {
	case was && !reachable:
		logging.WarnWithContext(m.logger, "connectivity lost", "connectivity_lost",
			logging.String("address", m.address),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network connection or connectivity.probe_address"),
			logging.String(logging.FieldImpact, "enrichment serves cached data only"),
		)
	case !was && reachable:
		m.logger.Info("connectivity restored",
			logging.String(logging.FieldEventType, "connectivity_restored"),
			logging.String("address", m.address),
			logging.Duration("latency", time.Since(start)),
		)
		select {
		case m.restored <- struct{}{}:
		default:
		}
	default:
		m.logger.Debug("connectivity probe",
			logging.Bool("online", reachable),
			logging.String("address", m.address),
		)
	}
	return reachable
}

// Start performs an initial probe and launches the background loop.
// Netlink failures are logged and otherwise ignored.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	m.Probe(ctx)

	if m.useNetlink {
		conn := new(netlink.UEventConn)
		if err := conn.Connect(netlink.KernelEvent); err != nil {
			logging.WarnWithContext(m.logger, "failed to connect to netlink socket; relying on periodic probes", "netlink_connect_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "ensure the process may open NETLINK_KOBJECT_UEVENT sockets"),
				logging.String(logging.FieldImpact, "reconnects are noticed on the next probe interval"),
			)
		} else {
			m.conn = conn
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.loop(loopCtx, m.conn, m.done)

	m.logger.Info("connectivity monitor started",
		logging.String(logging.FieldEventType, "connectivity_monitor_started"),
		logging.Bool("online", m.Online()),
		logging.Bool("netlink", m.conn != nil),
		logging.Duration("interval", m.interval),
	)
	return nil
}

// Stop terminates the background loop and closes the netlink socket.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done, conn := m.cancel, m.done, m.conn
	m.running = false
	m.cancel, m.done, m.conn = nil, nil, nil
	m.mu.Unlock()

	cancel()
	<-done
	if conn != nil {
		_ = conn.Close()
	}
}

// Running reports whether the background loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, conn *netlink.UEventConn, done chan<- struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if m.interval > 0 {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		events <-chan netlink.UEvent
		errs   <-chan error
	)
	if conn != nil {
		queue := make(chan netlink.UEvent)
		errCh := make(chan error)
		quit := conn.Monitor(queue, errCh, interfaceMatcher())
		defer close(quit)
		events, errs = queue, errCh
	}

	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			m.Probe(ctx)
		case <-m.trigger:
			m.Probe(ctx)
		case <-settle.C:
			m.Probe(ctx)
		case uevent := <-events:
			m.logger.Debug("network interface event",
				logging.String(logging.FieldEventType, "netlink_interface_event"),
				logging.String("action", string(uevent.Action)),
				logging.String("interface", uevent.Env["INTERFACE"]),
			)
			settle.Reset(settleDelay)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "interface changes may be noticed late"),
			)
		}
	}
}

// interfaceMatcher matches kernel uevents for network interfaces appearing,
// disappearing, or changing.
func interfaceMatcher() netlink.Matcher {
	action := "add|remove|change|move"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	return rules
}
