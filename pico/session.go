package pico

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// DevicePort is the fixed TCP service port for configuration requests.
	DevicePort = 5001

	connectRetries    = 5
	connectRetryDelay = 5 * time.Second
	connectTimeout    = 10 * time.Second

	responseBufferSize = 2048

	// Byte position of the zero-based maximum slot index in the count
	// response.
	countResponseOffset = 19
)

// Session drives the one-shot configuration exchange over TCP. The device
// is single-buffered and its responses carry no request id, so requests are
// strictly sequential. The session is not reused for telemetry.
type Session struct {
	log     Logger
	conn    net.Conn
	timeout time.Duration
}

// Connect opens the configuration channel with up to five attempts spaced
// five seconds apart. Exhausting the retries is fatal to configuration;
// the caller cannot build a registry without it.
func Connect(addr string, port int, logger Logger) (*Session, error) {
	var lastErr error
	for attempt := 0; attempt < connectRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying in %v...", connectRetryDelay)
			time.Sleep(connectRetryDelay)
		}
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr, strconv.Itoa(port)), connectTimeout)
		if err != nil {
			logger.Warn("Connection attempt failed: %v", err)
			lastErr = err
			continue
		}
		// The exchange is small request/response pairs; disable coalescing.
		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Warn("Failed to set TCP_NODELAY: %v", err)
			}
		}
		logger.Info("Connected to %s:%d", addr, port)
		return &Session{log: logger, conn: conn, timeout: connectTimeout}, nil
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrConnect, connectRetries, lastErr)
}

// NewSession wraps an existing connection. Used by tests.
func NewSession(conn net.Conn, logger Logger) *Session {
	return &Session{log: logger, conn: conn, timeout: connectTimeout}
}

func (s *Session) roundTrip(cmd []byte) ([]byte, error) {
	// A device that accepts the connection but never answers must not
	// wedge configuration; the deadline is re-armed per exchange.
	if err := s.conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, fmt.Errorf("set deadline failed: %w", err)
	}
	LogFrame(s.log, "TX", cmd)
	if _, err := s.conn.Write(cmd); err != nil {
		return nil, fmt.Errorf("send failed: %w", err)
	}
	buf := make([]byte, responseBufferSize)
	n, err := s.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("receive failed: %w", err)
	}
	LogFrame(s.log, "RX", buf[:n])
	return buf[:n], nil
}

// SensorCount asks how many sensor slots are configured. The device reports
// the highest zero-based slot index, hence the increment.
func (s *Session) SensorCount() (int, error) {
	resp, err := s.roundTrip(buildSensorCountCommand())
	if err != nil {
		return 0, err
	}
	if len(resp) <= countResponseOffset {
		return 0, fmt.Errorf("count response too short: %d bytes", len(resp))
	}
	return int(resp[countResponseOffset]) + 1, nil
}

// SensorInfo retrieves and decodes the raw configuration record of one slot.
func (s *Session) SensorInfo(pos int) (Record, error) {
	resp, err := s.roundTrip(buildSensorInfoCommand(byte(pos)))
	if err != nil {
		return nil, err
	}
	return DecodeFrame(resp, s.log), nil
}

// EnumerateSensors retrieves every configured sensor's raw record in slot
// order. A failure mid-enumeration is returned as-is: a partial result would
// misattribute element offsets for the sensors after the gap.
func (s *Session) EnumerateSensors() ([]Record, error) {
	count, err := s.SensorCount()
	if err != nil {
		return nil, err
	}
	s.log.Info("Device reports %d sensor slots", count)

	records := make([]Record, 0, count)
	for pos := 0; pos < count; pos++ {
		record, err := s.SensorInfo(pos)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", pos, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}
