package controllers

import (
	"time"

	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/sse"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

const keepAlive = 25 * time.Second

// LiveController streams order and payment events to the admin dashboard.
type LiveController struct {
	hub *ws.Hub
}

func NewLiveController(hub *ws.Hub) *LiveController {
	return &LiveController{hub: hub}
}

func (l *LiveController) Socket(c *ctx.Context) {
	ws.Upgrade(c.W, c.R, l.hub)
}

func (l *LiveController) Events(c *ctx.Context) {
	stream := sse.New(c.W, c.R)
	if stream == nil {
		return
	}
	events, release := l.hub.Subscribe()
	defer release()

	c.Log().Info("live feed subscriber connected")
	stream.Pipe(events, keepAlive)
}
