// If you are AI: This file wires the whole driver together: the CnC file and its
// sections, the counters store, the rings, the conductor and resolver agents,
// and the optional monitor endpoint.

package driver

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"aeronmd/internal/config"
	"aeronmd/internal/core/clock"
	"aeronmd/internal/core/cnc"
	"aeronmd/internal/core/counters"
	"aeronmd/internal/core/errorlog"
	"aeronmd/internal/core/rb"
	"aeronmd/internal/driver/conductor"
	"aeronmd/internal/driver/resolver"
	"aeronmd/internal/svc/monitor"
)

// Driver owns every buffer, socket, and timer of one media driver process.
type Driver struct {
	cfg        *config.Config
	layout     *cnc.Layout
	store      *counters.Store
	runners    []*Runner
	monitorSvc *monitor.Server
	group      *errgroup.Group
}

// New creates the driver directory, publishes the CnC file, and constructs
// the agents. Nothing runs until Start.
func New(cfg *config.Config) (*Driver, error) {
	clk := clock.System{}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("driver dir %s: %w", cfg.Dir, err)
	}

	instanceID := uuid.New()
	layout, err := cnc.Create(cfg.Dir, cnc.Lengths{
		ToDriver:         cfg.Cnc.ToDriverCapacity + rb.MpscTrailerLength,
		ToClients:        cfg.Cnc.ToClientsCapacity + rb.BroadcastTrailerLength,
		CountersMetadata: cfg.Cnc.CounterSlots * counters.MetadataLength,
		CountersValues:   cfg.Cnc.CounterSlots * counters.CounterLength,
		ErrorLog:         cfg.Cnc.ErrorLogLength,
	}, clk.EpochMs(), instanceID)
	if err != nil {
		return nil, err
	}

	d := &Driver{cfg: cfg, layout: layout}
	closeOnErr := func(err error) (*Driver, error) {
		layout.Close()
		return nil, err
	}

	toDriver, err := rb.NewManyToOne(layout.ToDriver)
	if err != nil {
		return closeOnErr(err)
	}
	toClients, err := rb.NewTransmitter(layout.ToClients)
	if err != nil {
		return closeOnErr(err)
	}

	d.store = counters.NewStore(
		layout.CountersMetadata, layout.CountersValues, clk, cfg.Timeouts.CounterReuseWindowMs)
	errLog := errorlog.NewLog(layout.ErrorLog, clk)

	cond, err := conductor.New(
		conductor.Config{
			ClientLivenessTimeoutNs:    cfg.Timeouts.ClientLivenessMs * int64(time.Millisecond),
			PublicationLingerTimeoutNs: cfg.Timeouts.PublicationLingerMs * int64(time.Millisecond),
			CommandFragmentLimit:       cfg.Agents.CommandFragmentLimit,
			SessionIDSeed:              clk.NanoTime(),
		},
		clk, toDriver, toClients, d.store, errLog,
		&conductor.FsLogFactory{Dir: cfg.Dir, Length: cfg.Cnc.LogBufferLength},
	)
	if err != nil {
		return closeOnErr(err)
	}
	d.runners = append(d.runners, NewRunner(
		cond,
		NewIdleStrategy(cfg.Agents.ConductorIdle),
		cfg.AgentMask&config.TraceConductor != 0))

	if cfg.Resolver.Enabled {
		res, err := resolver.New(resolver.Config{
			Name:                         cfg.Resolver.Name,
			Address:                      cfg.Resolver.Address,
			BootstrapNeighbor:            cfg.Resolver.BootstrapNeighbor,
			SelfResolutionIntervalMs:     cfg.Resolver.SelfResolutionIntervalMs,
			NeighborResolutionIntervalMs: cfg.Resolver.NeighborResolutionIntervalMs,
		}, clk, d.store)
		if err != nil {
			return closeOnErr(err)
		}
		d.runners = append(d.runners, NewRunner(
			res,
			NewIdleStrategy(cfg.Agents.ResolverIdle),
			cfg.AgentMask&config.TraceResolver != 0))
	}

	if cfg.Monitor.Enabled {
		d.monitorSvc = monitor.New(
			cfg.Monitor.Port,
			&d.store.Reader,
			time.Duration(cfg.Monitor.IntervalMs)*time.Millisecond)
	}

	log.Printf("driver started: dir=%s instance=%s", cfg.Dir, instanceID)
	return d, nil
}

// Start launches every agent and the monitor endpoint. It returns once
// all are running; errors surface through Shutdown.
func (d *Driver) Start() {
	d.group = &errgroup.Group{}
	for _, r := range d.runners {
		runner := r
		d.group.Go(func() error {
			runner.Run()
			return nil
		})
	}
	if d.monitorSvc != nil {
		d.group.Go(func() error {
			return d.monitorSvc.Serve()
		})
	}
}

// Shutdown stops every agent, joins them, and unmaps the CnC file.
func (d *Driver) Shutdown() error {
	for _, r := range d.runners {
		r.Stop()
	}
	if d.monitorSvc != nil {
		if err := d.monitorSvc.Close(); err != nil {
			log.Printf("monitor close: %v", err)
		}
	}
	if d.group != nil {
		if err := d.group.Wait(); err != nil {
			log.Printf("agent error: %v", err)
		}
	}
	return d.layout.Close()
}
