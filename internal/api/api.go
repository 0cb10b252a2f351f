package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/scepter7/pychat/internal/config"
	"github.com/scepter7/pychat/internal/events"
)

type Claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Client 负责会话相关的 HTTP 调用：登录、令牌轮换、历史分页与房间设置。
type Client struct {
	base  string
	hc    *http.Client
	slack time.Duration

	mu      sync.Mutex
	access  string
	refresh string
}

func New(cfg config.Config) *Client {
	return &Client{
		base:  cfg.ServerURL,
		hc:    &http.Client{Timeout: 10 * time.Second},
		slack: time.Duration(cfg.RefreshSlackSeconds) * time.Second,
	}
}

func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	c.access = access
	c.refresh = refresh
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if at := c.AccessToken(); at != "" {
		req.Header.Set("Authorization", "Bearer "+at)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login 换取初始令牌对。
func (c *Client) Login(ctx context.Context, username, password string) error {
	var tp tokenPair
	req := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &tp); err != nil {
		return err
	}
	c.setTokens(tp.AccessToken, tp.RefreshToken)
	return nil
}

// Refresh 轮换令牌对：旧 refresh token 作废，两个令牌同时替换。
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refresh
	c.mu.Unlock()
	if rt == "" {
		return errors.New("no refresh token")
	}
	var tp tokenPair
	req := map[string]string{"refresh_token": rt}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", req, &tp); err != nil {
		return err
	}
	c.setTokens(tp.AccessToken, tp.RefreshToken)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refresh
	c.mu.Unlock()
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", map[string]string{"refresh_token": rt}, nil)
	c.setTokens("", "")
	return err
}

// History 拉取一页比 beforeID 更早的消息，升序返回；空页表示没有更多历史。
func (c *Client) History(ctx context.Context, roomID, beforeID int64, count int) ([]events.MessageDto, error) {
	path := "/api/v1/rooms/" + strconv.FormatInt(roomID, 10) + "/messages?limit=" + strconv.Itoa(count)
	if beforeID > 0 {
		path += "&before_id=" + strconv.FormatInt(beforeID, 10)
	}
	var out struct {
		Messages []events.MessageDto `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SaveRoomSettings 提交房间设置（名称、音量、通知开关）。
func (c *Client) SaveRoomSettings(ctx context.Context, roomID int64, name string, volume float64, notifications bool) error {
	req := map[string]any{"name": name, "volume": volume, "notifications": notifications}
	return c.do(ctx, http.MethodPost, "/api/v1/rooms/"+strconv.FormatInt(roomID, 10)+"/settings", req, nil)
}

// tokenExpiry 只读 claims 不验签，签名校验是服务端的事。
func (c *Client) tokenExpiry() (time.Time, error) {
	at := c.AccessToken()
	if at == "" {
		return time.Time{}, errors.New("no access token")
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(at, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

// RunRefresher 在令牌到期前按配置的提前量轮换，直到 ctx 取消。
func (c *Client) RunRefresher(ctx context.Context) {
	for {
		wait := time.Minute
		if exp, err := c.tokenExpiry(); err == nil {
			wait = time.Until(exp.Add(-c.slack))
			if wait < time.Second {
				wait = time.Second
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			if err := c.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("refresh token")
			}
		}
	}
}
