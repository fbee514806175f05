package webserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const eventBlock = 15 * time.Second

// Events relays the council event stream to display screens as SSE.
type Events struct {
	reader EventReader
	block  time.Duration
}

func NewEvents(reader EventReader) Events { return Events{reader: reader, block: eventBlock} }

func (e Events) Stream(c *gin.Context) {
	if e.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "event stream unavailable"})
		return
	}
	lastID := c.GetHeader("Last-Event-ID")
	if lastID == "" {
		lastID = c.DefaultQuery("after", "$")
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		events, err := e.reader.Read(ctx, lastID, e.block)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("api: read event stream: %v", err)
			}
			return
		}
		for _, ev := range events {
			lastID = ev.StreamID
			// The id lets a reconnecting EventSource resume via Last-Event-ID.
			c.Render(-1, sse.Event{Id: ev.StreamID, Event: ev.Type, Data: ev})
		}
		if len(events) == 0 {
			c.Render(-1, sse.Event{Event: "ping", Data: gin.H{"time": time.Now().Unix()}})
		}
		c.Writer.Flush()
		if ctx.Err() != nil {
			return
		}
	}
}
