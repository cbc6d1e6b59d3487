package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/monitoring"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/resilience"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

var (
	errStageClosed    = errors.New("remote stage closed")
	errSendBufferFull = errors.New("send buffer full")
)

// remoteStage is an ability stage living on the other side of a WebSocket.
// Broadcasts are queued without blocking; a subscriber that keeps falling
// behind trips its breaker and misses updates until it recovers.
type remoteStage struct {
	name    string
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

func newRemoteStage(name string, buffer int, settings resilience.Settings, metrics *monitoring.Metrics, logger *zap.Logger) *remoteStage {
	s := &remoteStage{
		name:    name,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
		metrics: metrics,
		logger:  logger.With(zap.String("stage", name)),
	}
	settings.OnStateChange = func(name string, from, to resilience.State) {
		s.logger.Warn("Remote stage delivery state changed",
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
	s.breaker = resilience.New(name, settings)
	return s
}

// OnConfigurationUpdate queues the merged delta for the client.
func (s *remoteStage) OnConfigurationUpdate(delta *configuration.Configuration) {
	payload, err := sonic.Marshal(map[string]interface{}{
		"type":      "configuration",
		"items":     delta.Items(),
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		s.logger.Error("Failed to encode configuration update", zap.Error(err))
		return
	}

	if err := s.breaker.Do(func() error { return s.offer(payload) }); err != nil {
		s.logger.Warn("Dropping configuration update", zap.Error(err))
		return
	}
	s.metrics.RecordWSMessage("out", "configuration")
}

// offer queues payload if there is room.
func (s *remoteStage) offer(payload []byte) error {
	select {
	case <-s.done:
		return errStageClosed
	default:
	}
	select {
	case s.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// reply queues a direct response, waiting for room.
func (s *remoteStage) reply(msgType string, body map[string]interface{}) {
	payload, err := encodeFrame(msgType, body)
	if err != nil {
		s.logger.Error("Failed to encode reply", zap.Error(err))
		return
	}
	select {
	case s.send <- payload:
		s.metrics.RecordWSMessage("out", msgType)
	case <-s.done:
	}
}

// queue is reply without waiting. It is used while the Application lock is
// held, when nothing can drain the buffer yet.
func (s *remoteStage) queue(msgType string, body map[string]interface{}) error {
	payload, err := encodeFrame(msgType, body)
	if err != nil {
		return err
	}
	if err := s.offer(payload); err != nil {
		return err
	}
	s.metrics.RecordWSMessage("out", msgType)
	return nil
}

func encodeFrame(msgType string, body map[string]interface{}) ([]byte, error) {
	if body == nil {
		body = make(map[string]interface{})
	}
	body["type"] = msgType
	body["timestamp"] = time.Now().Unix()
	return sonic.Marshal(body)
}

func (s *remoteStage) replyError(msg string) {
	s.reply("error", map[string]interface{}{"message": msg})
}

func (s *remoteStage) close() {
	s.once.Do(func() { close(s.done) })
}
