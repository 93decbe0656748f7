package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/ember/internal/agent"
	"github.com/dyluth/ember/internal/clock"
	"github.com/dyluth/ember/internal/config"
	"github.com/dyluth/ember/internal/hal"
	"github.com/dyluth/ember/internal/module"
	"github.com/dyluth/ember/internal/modules/basic"
	"github.com/dyluth/ember/internal/modules/mirror"
	"github.com/dyluth/ember/internal/modules/system"
	"github.com/dyluth/ember/internal/transport"
	"github.com/dyluth/ember/pkg/blackboard"
)

// device is one fully wired spark: runtime, modules, link and engine.
type device struct {
	cfg    *config.SparkConfig
	rt     *module.Runtime
	mgr    *module.Manager
	led    *hal.SimLED
	link   *transport.Client
	engine *agent.Engine

	bb     *blackboard.Client
	mirror *mirror.Module
	health *agent.HealthServer
}

// newDevice wires a device from cfg. Nothing runs until run.
func newDevice(ctx context.Context, cfg *config.SparkConfig) (*device, error) {
	d := &device{
		cfg: cfg,
		rt:  module.NewRuntime(clock.NewSystem()),
		led: hal.NewSimLED(cfg.Device.VerboseLED),
	}
	d.mgr = module.NewManager(d.rt)
	d.link = transport.New(transport.Options{URL: cfg.Server.URL})
	d.engine = agent.New(d.rt, d.mgr, d.link, cfg.Loop.TickInterval)

	mods := []module.Module{
		basic.New(d.rt, d.led, d.engine, basic.Options{
			BreathInterval: cfg.Modules.Basic.BreathInterval,
			RebootDelay:    cfg.Modules.Basic.RebootDelay,
		}),
	}
	if !cfg.Modules.System.Disabled {
		mods = append(mods, system.New(d.rt, system.Options{DeviceID: cfg.Device.Name}))
	}

	if cfg.MirrorEnabled() {
		bb, err := blackboard.NewClientFromURL(cfg.Blackboard.RedisURL, cfg.Device.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create blackboard client: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = bb.Ping(pingCtx)
		cancel()
		if err != nil {
			bb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Printf("[INFO] Connected to Redis, mirroring events for device '%s'", cfg.Device.Name)

		d.bb = bb
		d.mirror = mirror.New(d.rt, cfg.Device.Name, bb, cfg.Blackboard.QueueSize)
		mods = append(mods, d.mirror)
	}

	for _, m := range mods {
		if err := d.mgr.Register(m); err != nil {
			d.close()
			return nil, fmt.Errorf("failed to register %s: %w", m.Name(), err)
		}
	}

	if cfg.Health.Port > 0 {
		var pinger agent.Pinger
		if d.bb != nil {
			pinger = d.bb
		}
		d.health = agent.NewHealthServer(d.engine, pinger, fmt.Sprintf(":%d", cfg.Health.Port))
	}

	return d, nil
}

// run serves until ctx is cancelled (nil) or a module requests a restart
// (agent.ErrRestartRequested). Background workers are stopped before return.
func (d *device) run(ctx context.Context) error {
	defer d.close()

	if d.health != nil {
		if err := d.health.Start(); err != nil {
			return err
		}
		log.Printf("[INFO] Health server started on %s", d.health.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := d.health.Shutdown(shutdownCtx); err != nil {
				log.Printf("[ERROR] Health server shutdown error: %v", err)
			}
		}()
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.link.Run(workerCtx)
	}()

	if d.mirror != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.mirror.Run(workerCtx)
		}()
	}

	err := d.engine.Run(ctx)

	stopWorkers()
	wg.Wait()
	return err
}

func (d *device) close() {
	if d.bb == nil {
		return
	}
	if err := d.bb.Close(); err != nil {
		log.Printf("[ERROR] Error closing blackboard client: %v", err)
	}
	d.bb = nil
}
