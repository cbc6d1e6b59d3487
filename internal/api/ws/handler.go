package ws

import (
	"net/http"
	"time"

	"github.com/arkui-x/app-framework-sub003/internal/domain/app"
	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/monitoring"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/resilience"
	"github.com/arkui-x/app-framework-sub003/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StagePrefix prefixes the stage name of every WebSocket subscriber.
const StagePrefix = "remote-"

// Message is a client to server frame.
type Message struct {
	Type  string            `json:"type"`
	Level string            `json:"level,omitempty"`
	Items map[string]string `json:"items,omitempty"`
}

// Options tunes remote stage delivery.
type Options struct {
	SendBuffer int
	Breaker    resilience.Settings
}

// DefaultOptions returns the delivery settings used by the server.
func DefaultOptions() Options {
	return Options{
		SendBuffer: 32,
		Breaker:    resilience.DefaultSettings(),
	}
}

// Handler turns every WebSocket connection into a remote ability stage.
type Handler struct {
	app      *app.Application
	upgrader websocket.Upgrader
	opts     Options
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(application *app.Application, opts Options, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}
	return &Handler{
		app: application,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Origin policy is enforced by the CORS middleware
			},
		},
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	name := StagePrefix + uuid.NewString()
	stage := newRemoteStage(name, h.opts.SendBuffer, h.opts.Breaker, h.metrics, h.logger)
	// The welcome is queued before the stage becomes visible to broadcasts,
	// so it is always the first frame the client reads.
	err = h.app.AttachStage(name, stage, func(cfg *configuration.Configuration) {
		welcome := map[string]interface{}{"stage": name}
		if cfg != nil {
			welcome["items"] = cfg.Items()
		}
		if err := stage.queue("welcome", welcome); err != nil {
			h.logger.Warn("Failed to queue welcome", zap.String("stage", name), zap.Error(err))
		}
	})
	if err != nil {
		h.logger.Error("Failed to register remote stage", zap.Error(err))
		return
	}
	h.metrics.IncWSConnections()
	h.logger.Info("Remote stage connected", zap.String("stage", name))

	defer func() {
		h.app.UnregisterStage(name)
		stage.close()
		h.metrics.DecWSConnections()
		h.logger.Info("Remote stage disconnected", zap.String("stage", name))
	}()

	go h.writePump(conn, stage)

	conn.SetReadLimit(utils.MaxJSONSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.String("stage", name), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			stage.replyError("malformed message")
			continue
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "ping":
			stage.reply("pong", nil)
		case "update":
			h.handleUpdate(stage, msg)
		default:
			stage.replyError("unknown message type")
		}
	}
}

func (h *Handler) handleUpdate(stage *remoteStage, msg Message) {
	lvl := level.System
	if msg.Level != "" {
		parsed, err := level.Parse(msg.Level)
		if err != nil {
			stage.replyError(err.Error())
			return
		}
		lvl = parsed
	}

	if err := utils.ValidateDelta(msg.Items); err != nil {
		stage.replyError(err.Error())
		return
	}
	delta, rejected := configuration.FromMap(msg.Items)
	if len(rejected) > 0 {
		stage.reply("error", map[string]interface{}{
			"message":  "invalid configuration values",
			"rejected": rejected,
		})
		return
	}

	applied := h.app.OnConfigurationUpdate(delta, lvl)
	stage.reply("ack", map[string]interface{}{
		"applied": applied,
		"items":   delta.Items(),
	})
}

// writePump is the only writer on conn.
func (h *Handler) writePump(conn *websocket.Conn, stage *remoteStage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-stage.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warn("WebSocket write error", zap.String("stage", stage.name), zap.Error(err))
				stage.close()
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				stage.close()
				conn.Close()
				return
			}
		case <-stage.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
