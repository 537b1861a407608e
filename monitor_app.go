package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"syscall"
	"time"

	"pico-service/pico"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sys/unix"
)

const (
	datagramBufferSize = 2048

	// Delay after each emitted document before draining queued datagrams.
	// Always decode the freshest frame, never build a backlog.
	cycleDelay = 900 * time.Millisecond

	// Telemetry is considered stale after this long without a valid frame.
	staleAfter = 30 * time.Second

	tankLowPercentage = 10.0
)

type MonitorApp struct {
	log     *LeveledLogger
	opts    *Options
	redis   *redis.Client
	ipcTx   *IPCTx
	diag    *Diag
	battery *BatteryMonitor
	conn    *net.UDPConn
	ctx     context.Context
	cancel  context.CancelFunc

	registry *pico.Registry
	decoder  *pico.Decoder
}

func NewMonitorApp(opts *Options) (*MonitorApp, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &MonitorApp{
		log:    NewLeveledLogger(log.New(log.Writer(), fmt.Sprintf("%s: ", ProjectName), log.LstdFlags), opts.LogLevel),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}

	if opts.RedisServerAddr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", opts.RedisServerAddr, opts.RedisServerPort),
			Password:     "",
			DB:           0,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})

		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		defer connectCancel()

		app.log.Info("Connecting to Redis at %s:%d...", opts.RedisServerAddr, opts.RedisServerPort)
		if err := app.redis.Ping(connectCtx).Err(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to Redis: %v", err)
		}
		app.log.Info("Successfully connected to Redis")

		app.ipcTx = NewIPCTx(app.log, app.redis)
		app.diag = NewDiag(app.log, app.redis)
	} else {
		app.log.Info("Redis disabled, running stdout-only")
	}

	app.battery = NewBatteryMonitor(app.log, opts.Profile.SOCFullScale())

	conn, err := openBroadcastListener(ctx, opts.ListenPort)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open UDP listener on port %d: %v", opts.ListenPort, err)
	}
	app.conn = conn
	app.log.Info("Listening for broadcasts on UDP port %d", opts.ListenPort)

	return app, nil
}

// openBroadcastListener binds the discovery/telemetry socket. The device
// vendor's dashboard binds the same port on the same host, so the socket
// needs address and port reuse in addition to broadcast reception.
func openBroadcastListener(ctx context.Context, port int) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var opErr error
			err := c.Control(func(fd uintptr) {
				if opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); opErr != nil {
					return
				}
				if opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); opErr != nil {
					return
				}
				opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			})
			if err != nil {
				return err
			}
			return opErr
		},
	}

	pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// Run drives the whole pipeline: discovery, one-shot configuration, then
// the telemetry loop. Configuration always completes before the loop
// starts; a partial registry would misattribute element offsets.
func (app *MonitorApp) Run() error {
	deviceAddr, err := app.discover()
	if err != nil {
		return err
	}
	app.log.Info("See device at %s", deviceAddr)

	records, err := app.configure(deviceAddr)
	if err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	app.registry = pico.BuildRegistry(records)
	for _, s := range app.registry.Sensors {
		app.log.Debug("sensor id=%d kind=%s name=%q offset=%d elements=%d",
			s.ID, s.Kind, s.Name, s.Offset, s.Elements)
	}
	app.decoder = pico.NewDecoder(app.registry, app.opts.Profile, app.log)

	if app.ipcTx != nil {
		if err := app.ipcTx.SendRegistry(app.registry); err != nil {
			app.log.Error("Failed to publish sensor registry: %v", err)
		}
	}

	return app.telemetryLoop()
}

// discover blocks until any broadcast datagram arrives; its source address
// is the device. The protocol assumes exactly one device per installation.
func (app *MonitorApp) discover() (string, error) {
	app.log.Info("Waiting for device broadcast...")
	buf := make([]byte, datagramBufferSize)
	_, addr, err := app.conn.ReadFromUDP(buf)
	if err != nil {
		if app.ctx.Err() != nil {
			return "", app.ctx.Err()
		}
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	return addr.IP.String(), nil
}

func (app *MonitorApp) configure(deviceAddr string) ([]pico.Record, error) {
	session, err := pico.Connect(deviceAddr, app.opts.DevicePort, app.log)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.EnumerateSensors()
}

func (app *MonitorApp) telemetryLoop() error {
	buf := make([]byte, datagramBufferSize)

	for {
		if app.ctx.Err() != nil {
			return nil
		}

		if err := app.conn.SetReadDeadline(time.Now().Add(staleAfter)); err != nil {
			return err
		}
		n, _, err := app.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				app.log.Warn("No telemetry for %v, still listening...", staleAfter)
				if app.diag != nil {
					app.diag.SetFaultPresence(pico.FaultTelemetryStale, true)
				}
				continue
			}
			if app.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("telemetry receive failed: %w", err)
		}

		datagram := buf[:n]
		app.log.Debug("Received packet with length %d", n)
		if !pico.ValidTelemetryFrame(datagram) {
			continue
		}
		app.log.DebugFrame("RX", datagram)

		if app.diag != nil {
			app.diag.SetFaultPresence(pico.FaultTelemetryStale, false)
		}

		snap, err := app.decoder.Decode(datagram, time.Now())
		if err != nil {
			continue
		}
		app.publish(snap)

		// Freshest-data backpressure: pause, then throw away whatever
		// queued up while we were busy.
		time.Sleep(cycleDelay)
		app.drain()
	}
}

func (app *MonitorApp) publish(snap *pico.Snapshot) {
	if !app.opts.NoStdout {
		if err := emitDocument(snap.Document()); err != nil {
			app.log.Error("Failed to emit document: %v", err)
		}
	}

	if app.ipcTx != nil {
		if err := app.ipcTx.SendSnapshot(snap); err != nil {
			app.log.Error("Failed to send snapshot: %v", err)
		}
	}

	faults := app.deriveFaults(snap)
	if app.diag != nil {
		app.diag.SetFaults(faults)
	}
}

// deriveFaults inspects one snapshot for conditions worth flagging.
func (app *MonitorApp) deriveFaults(snap *pico.Snapshot) map[pico.MonitorFault]bool {
	faults := make(map[pico.MonitorFault]bool)

	tankLow := false
	for _, r := range snap.Readings {
		switch r.Sensor.Kind {
		case pico.KindBattery:
			if r.StateOfCharge != nil && r.Sensor.Name != "" {
				app.battery.Update(r.Sensor.Name, *r.StateOfCharge)
			}
		case pico.KindTank:
			// A tank without a configured capacity always reads 0%; only
			// flag tanks whose percentage is meaningful.
			if r.Percentage != nil && r.Sensor.TankCapacity > 0 && *r.Percentage < tankLowPercentage {
				tankLow = true
			}
		}
	}

	switch app.battery.WorstState() {
	case ChargeStateCritical:
		faults[pico.FaultBatteryCritical] = true
	case ChargeStateLow:
		faults[pico.FaultBatteryLow] = true
	}
	faults[pico.FaultTankLow] = tankLow

	// This only runs right after a valid frame, so staleness is implicitly
	// cleared along with any other absent fault.
	return faults
}

// drain discards any datagrams that arrived while the last frame was being
// processed.
func (app *MonitorApp) drain() {
	buf := make([]byte, datagramBufferSize)
	for {
		if err := app.conn.SetReadDeadline(time.Now()); err != nil {
			return
		}
		if _, _, err := app.conn.ReadFromUDP(buf); err != nil {
			return
		}
	}
}

func (app *MonitorApp) Destroy() {
	app.log.Info("Shutting down monitor...")

	if app.cancel != nil {
		app.cancel()
	}

	if app.conn != nil {
		if err := app.conn.Close(); err != nil {
			app.log.Error("Error closing UDP listener: %v", err)
		}
	}

	if app.battery != nil {
		app.battery.Destroy()
	}

	if app.diag != nil {
		app.diag.Destroy()
	}

	if app.ipcTx != nil {
		app.ipcTx.Destroy()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Error("Error closing Redis connection: %v", err)
		} else {
			app.log.Info("Redis connection closed")
		}
	}
}
