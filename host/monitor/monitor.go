// Package monitor consumes a board's telemetry stream: it decodes
// frames, logs records, exports metrics, captures sessions to disk and
// cross-checks everything the board reports against its profile.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gopwr/core"
	"gopwr/host/profile"
	"gopwr/host/serial"
	"gopwr/telemetry"
)

// Config wires a Monitor. Port is required; everything else degrades
// gracefully when absent.
type Config struct {
	Port    serial.Port
	Profile *profile.Profile
	Logger  zerolog.Logger
	Metrics *Metrics
	Archive *Archive
}

// Monitor owns one telemetry session.
type Monitor struct {
	port    serial.Port
	prof    *profile.Profile
	log     zerolog.Logger
	metrics *Metrics
	archive *Archive
	session string

	dec        *telemetry.Decoder
	lastStats  telemetry.DecoderStats
	lastCommit *telemetry.CommitReport
}

// New builds a monitor with a fresh session ID.
func New(cfg Config) *Monitor {
	m := &Monitor{
		port:    cfg.Port,
		prof:    cfg.Profile,
		metrics: cfg.Metrics,
		archive: cfg.Archive,
		session: uuid.NewString(),
		dec:     telemetry.NewDecoder(),
	}
	m.log = cfg.Logger.With().Str("session", m.session).Logger()
	return m
}

// Session returns the session ID stamped on logs and the archive.
func (m *Monitor) Session() string {
	return m.session
}

// SetArchive attaches a capture archive after construction. The archive
// needs the session ID in its header, so it is created between New and
// Run; call before Run.
func (m *Monitor) SetArchive(a *Archive) {
	m.archive = a
}

// Run pumps the port until ctx is canceled or the port fails. Canceling
// the context closes the port, which unblocks the pending read.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().Msg("monitor started")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		m.port.Close()
		return nil
	})

	g.Go(func() error {
		buf := make([]byte, 256)
		for {
			n, err := m.port.Read(buf)
			if n > 0 {
				m.consume(buf[:n])
			}
			if err != nil {
				if ctx.Err() != nil {
					m.log.Info().Msg("monitor stopped")
					return nil
				}
				if errors.Is(err, io.EOF) {
					// Serial read timeouts surface as EOF; the link is
					// just idle.
					continue
				}
				return fmt.Errorf("telemetry port: %w", err)
			}
		}
	})

	return g.Wait()
}

// consume feeds raw bytes to the decoder and dispatches the frames.
func (m *Monitor) consume(p []byte) {
	frames := m.dec.Feed(p)

	st := m.dec.Stats()
	m.metrics.addLink(
		st.CRCErrors-m.lastStats.CRCErrors,
		st.Resyncs-m.lastStats.Resyncs,
		st.Missed-m.lastStats.Missed,
	)
	if st.Resyncs > m.lastStats.Resyncs {
		m.log.Warn().Uint64("resyncs", st.Resyncs).Msg("link lost frame sync")
	}
	m.lastStats = st

	for _, f := range frames {
		m.handleFrame(f)
	}
}

func (m *Monitor) handleFrame(f telemetry.Frame) {
	rec, err := telemetry.Decode(f)
	if err != nil {
		m.log.Warn().Err(err).Uint8("type", uint8(f.Type)).Msg("undecodable frame")
		m.metrics.countFrame("unknown")
		return
	}
	m.metrics.countFrame(f.Type.String())
	if m.archive != nil {
		m.archive.Append(f.Type, rec)
	}

	switch r := rec.(type) {
	case telemetry.CommitReport:
		m.handleCommit(r)
	case telemetry.RailSample:
		m.handleRail(r)
	case telemetry.FaultReport:
		m.handleFault(r)
	}
}

func (m *Monitor) handleCommit(r telemetry.CommitReport) {
	if m.lastCommit != nil && *m.lastCommit == r {
		// Heartbeat re-emit, nothing new.
		return
	}
	m.lastCommit = &r

	m.log.Info().
		Str("family", r.Family).
		Str("supply", core.SupplyStrategy(r.Strategy).String()).
		Bool("overdrive", r.Overdrive).
		Uint8("scale", r.Scale).
		Str("bits", fmt.Sprintf("0x%02X", r.Bits)).
		Uint32("domain_polls", r.DomainPolls).
		Uint32("scale_polls", r.ScalePolls).
		Uint32("overdrive_polls", r.OverdrivePolls).
		Msg("commit report")

	m.metrics.setCommit(int(r.Scale), r.DomainPolls, r.ScalePolls, r.OverdrivePolls)
	m.checkCommit(r)
}

// checkCommit compares the board's own account of the commit against
// the profile. A disagreement is not fatal on the host side, the board
// already latched whatever it latched, but it is exactly the situation
// the bench needs to hear about.
func (m *Monitor) checkCommit(r telemetry.CommitReport) {
	if m.prof == nil {
		return
	}
	if r.Version != telemetry.ReportVersion {
		m.mismatch("version", fmt.Sprint(r.Version), fmt.Sprint(telemetry.ReportVersion))
	}
	if r.Family != m.prof.Chip {
		m.mismatch("chip", r.Family, m.prof.Chip)
	}
	if want, err := m.prof.Strategy(); err == nil && core.SupplyStrategy(r.Strategy) != want {
		m.mismatch("supply", core.SupplyStrategy(r.Strategy).String(), want.String())
	}
	if r.Overdrive != m.prof.Overdrive {
		m.mismatch("overdrive", fmt.Sprint(r.Overdrive), fmt.Sprint(m.prof.Overdrive))
	}
	if int(r.Scale) != m.prof.ExpectedScale() {
		m.mismatch("scale", fmt.Sprint(r.Scale), fmt.Sprint(m.prof.ExpectedScale()))
	}
	if want, err := m.prof.ExpectedBits(); err == nil && r.Bits != telemetry.PackBits(want) {
		m.mismatch("bits", fmt.Sprintf("0x%02X", r.Bits), fmt.Sprintf("0x%02X", telemetry.PackBits(want)))
	}
}

func (m *Monitor) mismatch(check, got, want string) {
	m.log.Warn().
		Str("check", check).
		Str("got", got).
		Str("want", want).
		Msg("board disagrees with profile")
	m.metrics.countMismatch(check)
}

func (m *Monitor) handleRail(s telemetry.RailSample) {
	m.metrics.setRail(s.Rail, s.Microvolts, s.Microamps, s.Microwatts)

	m.log.Debug().
		Str("rail", s.Rail).
		Int32("microvolts", s.Microvolts).
		Int32("microamps", s.Microamps).
		Int32("microwatts", s.Microwatts).
		Msg("rail sample")

	if m.prof == nil {
		return
	}
	if b, ok := m.prof.RailBounds(s.Rail); ok {
		if s.Microvolts < b.MinMicrovolts || s.Microvolts > b.MaxMicrovolts {
			m.log.Warn().
				Str("rail", s.Rail).
				Int32("microvolts", s.Microvolts).
				Int32("min", b.MinMicrovolts).
				Int32("max", b.MaxMicrovolts).
				Msg("rail out of bounds")
			m.metrics.countMismatch("rail:" + s.Rail)
		}
	}
}

func (m *Monitor) handleFault(r telemetry.FaultReport) {
	m.log.Error().
		Str("kind", core.FaultKind(r.Kind).String()).
		Str("field", r.Field).
		Str("supply", core.SupplyStrategy(r.Strategy).String()).
		Uint8("want", r.Want).
		Uint8("got", r.Got).
		Msg("board reported a supply fault and halted")
	m.metrics.countFault(core.FaultKind(r.Kind).String())
}
