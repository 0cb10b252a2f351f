package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/scepter7/pychat/internal/api"
	"github.com/scepter7/pychat/internal/config"
	"github.com/scepter7/pychat/internal/engine"
	"github.com/scepter7/pychat/internal/events"
	"github.com/scepter7/pychat/internal/metrics"
)

const (
	readLimit  = 1 << 20 // 1MB
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// Conn 是到聊天服务端的 websocket 连接。读泵把解码后的事件按到达
// 顺序逐条喂给调和引擎（一条处理完才读下一条）；写泵带心跳发送
// 出站帧，出站速率由令牌桶限制。
type Conn struct {
	ws       *websocket.Conn
	eng      *engine.Engine
	apiCli   *api.Client
	send     chan []byte
	lim      *rate.Limiter
	pageSize int
}

func wsURL(serverURL, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func Dial(ctx context.Context, cfg config.Config, eng *engine.Engine, apiCli *api.Client) (*Conn, error) {
	target, err := wsURL(cfg.ServerURL, apiCli.AccessToken())
	if err != nil {
		return nil, err
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{
		ws:       ws,
		eng:      eng,
		apiCli:   apiCli,
		send:     make(chan []byte, 256),
		lim:      rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), cfg.SendBurst),
		pageSize: cfg.HistoryPageSize,
	}, nil
}

// Run 启动写泵并阻塞在读泵上，连接断开或 ctx 取消后返回。
func (c *Conn) Run(ctx context.Context) error {
	go c.writePump(ctx)
	return c.readPump()
}

func (c *Conn) Close() error { return c.ws.Close() }

func (c *Conn) readPump() error {
	defer c.ws.Close()
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := events.Decode(data)
		if err != nil {
			var ua *events.UnknownActionError
			if errors.As(err, &ua) {
				metrics.UnknownEventsTotal.Inc()
				log.Warn().Str("action", ua.Action).Msg("dropping frame with unknown action")
			} else {
				log.Warn().Err(err).Msg("dropping undecodable frame")
			}
			continue
		}
		if sw, ok := ev.(*events.SetWsID); ok {
			c.eng.ApplySession(sw)
			continue
		}
		// 错误已在 handler 内记录，分发循环保持存活。
		_ = c.eng.Dispatch(ev)
	}
}

func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case b := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send 序列化并投递一个出站帧，先过令牌桶再入队。
func (c *Conn) Send(ctx context.Context, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := c.lim.Wait(ctx); err != nil {
		return err
	}
	select {
	case c.send <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage 发送一条聊天消息。
func (c *Conn) SendMessage(ctx context.Context, roomID int64, content string) error {
	return c.Send(ctx, map[string]any{"action": "sendMessage", "roomId": roomID, "content": content})
}

// RequestHistory 向 API 请求比本地最旧消息更早的一页历史，
// 并把结果作为 loadMessages 事件交给引擎调和。何时翻页由调用方
// （视图层）决定，引擎本身从不主动拉取。
func (c *Conn) RequestHistory(ctx context.Context, roomID int64) error {
	st := c.eng.Store()
	if st.AllLoaded(roomID) {
		return nil
	}
	var beforeID int64
	if msgs := st.Messages(roomID); len(msgs) > 0 {
		beforeID = msgs[0].ID
	}
	page, err := c.apiCli.History(ctx, roomID, beforeID, c.pageSize)
	if err != nil {
		return err
	}
	return c.eng.Dispatch(&events.LoadMessages{RoomID: roomID, Content: page})
}
