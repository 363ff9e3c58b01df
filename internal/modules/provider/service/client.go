package service

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"lending_sim/internal/modules/config"
)

// Client ходит в data provider за снапшотами позиций и стримом цен.
type Client struct {
	cfg *config.Config

	http     *http.Client
	wsDialer *websocket.Dialer

	baseURL   string
	streamURL string

	// OnStreamState дергается при connect/disconnect ws-фида. Может быть nil.
	OnStreamState func(connected bool)
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: 10 * time.Second},
		wsDialer:  &websocket.Dialer{},
		baseURL:   cfg.Provider.BaseURL,
		streamURL: cfg.Provider.StreamURL,
	}
}
