// internal/discovery/scanner.go
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// ErrScanInProgress is returned when a scan is requested while another one
// is still running.
var ErrScanInProgress = errors.New("a network scan is already in progress")

// Prober tests whether a raw printing port accepts connections
type Prober interface {
	Probe(ctx context.Context, ip string, port int, timeout time.Duration) error
}

// Config holds scanner tuning
type Config struct {
	PingTimeout  time.Duration
	ProbeTimeout time.Duration
	ProbeDelay   time.Duration
	Workers      int
	DefaultPort  int
}

// Options controls a single scan run
type Options struct {
	// SubnetBase like "192.168.1.", auto-detected when empty
	SubnetBase string
	// ScanSpeed is fast, normal or thorough
	ScanSpeed string
	// IncludeExtendedPorts probes legacy print ports besides 9100
	IncludeExtendedPorts bool
	// OnProgress receives scan progress, may be nil
	OnProgress func(current, total, found int)
	// OnLog receives human readable scan log lines, may be nil
	OnLog func(message string)
}

// Result summarizes a finished scan
type Result struct {
	Printers       []model.DiscoveredPrinter `json:"printers"`
	HostsScanned   int                       `json:"hosts_scanned"`
	HostsReachable int                       `json:"hosts_reachable"`
	Duration       time.Duration             `json:"duration"`
}

// rawPrintPorts in probe order, 9100 first since nearly every network
// thermal printer speaks it.
var rawPrintPorts = []int{9100, 9101, 515, 631}

// Scanner finds network receipt printers with a two phase hybrid scan:
// a parallel HTTP liveness sweep narrows the subnet down to hosts that
// exist, then a careful sequential probe of the raw printing ports avoids
// overwhelming printer controllers that lock up under parallel connects.
type Scanner struct {
	logger     *zap.Logger
	config     *Config
	prober     Prober
	httpClient *http.Client

	// pingFn is swapped out in tests
	pingFn func(ctx context.Context, ip string) bool

	mutex    sync.Mutex
	scanning bool
}

// NewScanner creates a Scanner
func NewScanner(logger *zap.Logger, config *Config, prober Prober) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if config.PingTimeout <= 0 {
		config.PingTimeout = 800 * time.Millisecond
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 2 * time.Second
	}
	if config.ProbeDelay <= 0 {
		config.ProbeDelay = 300 * time.Millisecond
	}
	if config.Workers <= 0 {
		config.Workers = 16
	}
	if config.DefaultPort <= 0 {
		config.DefaultPort = 9100
	}

	s := &Scanner{
		logger: logger.With(zap.String("component", "discovery")),
		config: config,
		prober: prober,
		httpClient: &http.Client{
			Timeout: config.PingTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	s.pingFn = s.httpPing
	return s
}

// Reserve claims the scanner for an upcoming run. Callers that want the
// conflict error before starting a goroutine reserve first and then call
// RunReserved.
func (s *Scanner) Reserve() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.scanning {
		return ErrScanInProgress
	}
	s.scanning = true
	return nil
}

func (s *Scanner) release() {
	s.mutex.Lock()
	s.scanning = false
	s.mutex.Unlock()
}

// Scan runs a full discovery pass. Only one scan runs at a time.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Result, error) {
	if err := s.Reserve(); err != nil {
		return nil, err
	}
	return s.RunReserved(ctx, opts)
}

// RunReserved performs the scan for a reservation made with Reserve. It
// releases the reservation when done.
func (s *Scanner) RunReserved(ctx context.Context, opts Options) (*Result, error) {
	defer s.release()

	base := opts.SubnetBase
	if base == "" {
		detected, err := LocalSubnet()
		if err != nil {
			return nil, fmt.Errorf("subnet detection failed: %w", err)
		}
		base = detected
	}

	candidates := Candidates(base, opts.ScanSpeed)
	started := time.Now()

	s.logger.Info("Starting network scan",
		zap.String("subnet", base+"0/24"),
		zap.String("speed", opts.ScanSpeed),
		zap.Int("candidates", len(candidates)),
	)
	emitLog(opts, fmt.Sprintf("Scanning %s0/24 (%d hosts)...", base, len(candidates)))

	// Phase 1: parallel liveness sweep. Until the reachable hosts are
	// known the total only covers this phase.
	var (
		progressMu sync.Mutex
		current    int
		reachable  []string
	)
	total := len(candidates)

	forEachHost(ctx, s.config.Workers, candidates, func(ip string) {
		pingCtx, cancel := context.WithTimeout(ctx, s.config.PingTimeout)
		alive := s.pingFn(pingCtx, ip)
		cancel()

		progressMu.Lock()
		current++
		if alive {
			reachable = append(reachable, ip)
		}
		cur := current
		progressMu.Unlock()

		emitProgress(opts, cur, total, 0)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Probe in address order, the sweep finishes in arbitrary order
	sort.Slice(reachable, func(i, j int) bool { return hostLess(reachable[i], reachable[j]) })

	s.logger.Info("Liveness sweep finished",
		zap.Int("hosts_scanned", len(candidates)),
		zap.Int("hosts_reachable", len(reachable)),
	)
	emitLog(opts, fmt.Sprintf("%d hosts responded, checking printer ports...", len(reachable)))

	// Phase 2: sequential port probes, total now spans both phases
	total = len(candidates) + len(reachable)

	ports := []int{s.config.DefaultPort}
	if opts.IncludeExtendedPorts {
		ports = rawPrintPorts
	}

	var printers []model.DiscoveredPrinter
	for _, ip := range reachable {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var openPorts []int
		for _, port := range ports {
			probeCtx, cancel := context.WithTimeout(ctx, s.config.ProbeTimeout)
			err := s.prober.Probe(probeCtx, ip, port, s.config.ProbeTimeout)
			cancel()
			if err == nil {
				openPorts = append(openPorts, port)
			}

			// Pace the probes, printer controllers dislike bursts
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.ProbeDelay):
			}
		}

		current++
		if len(openPorts) > 0 {
			printers = append(printers, model.DiscoveredPrinter{
				IP:        ip,
				Port:      openPorts[0],
				OpenPorts: openPorts,
				ProbedAt:  time.Now(),
			})
			emitLog(opts, fmt.Sprintf("Printer found at %s:%d", ip, openPorts[0]))
		}
		emitProgress(opts, current, total, len(printers))
	}

	result := &Result{
		Printers:       printers,
		HostsScanned:   len(candidates),
		HostsReachable: len(reachable),
		Duration:       time.Since(started),
	}

	s.logger.Info("Network scan completed",
		zap.Int("printers_found", len(printers)),
		zap.Duration("duration", result.Duration),
	)
	emitLog(opts, fmt.Sprintf("Scan complete: %d printer(s) found", len(printers)))
	return result, nil
}

// httpPing reports whether a host exists. Any HTTP response means a live
// host, and so does connection refused: the host is up, it just runs no
// web server. Only timeouts and unreachable routes mean absence.
func (s *Scanner) httpPing(ctx context.Context, ip string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "http://"+ip+"/", nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

func emitProgress(opts Options, current, total, found int) {
	if opts.OnProgress != nil {
		opts.OnProgress(current, total, found)
	}
}

func emitLog(opts Options, message string) {
	if opts.OnLog != nil {
		opts.OnLog(message)
	}
}

// hostLess orders dotted IPv4 strings numerically
func hostLess(a, b string) bool {
	var a1, a2, a3, a4, b1, b2, b3, b4 int
	fmt.Sscanf(a, "%d.%d.%d.%d", &a1, &a2, &a3, &a4)
	fmt.Sscanf(b, "%d.%d.%d.%d", &b1, &b2, &b3, &b4)
	if a1 != b1 {
		return a1 < b1
	}
	if a2 != b2 {
		return a2 < b2
	}
	if a3 != b3 {
		return a3 < b3
	}
	return a4 < b4
}
