package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/esir-council/esir/src/council"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	StreamEvents    = "esir.events"
	streamMaxLength = 10000
)

func ConnectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return redis.NewClient(opt), nil
}

func MustRedis(url string) *redis.Client {
	rdb, err := ConnectRedis(url)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return rdb
}

// EventStream publishes council events to a Redis stream and reads them
// back for display screens.
type EventStream struct {
	rdb    *redis.Client
	stream string
}

func NewEventStream(rdb *redis.Client) *EventStream {
	return &EventStream{rdb: rdb, stream: StreamEvents}
}

func (s *EventStream) Publish(ctx context.Context, ev council.Event) error {
	values, err := eventValues(ev, time.Now())
	if err != nil {
		return err
	}
	return s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: streamMaxLength,
		Approx: true,
		Values: values,
	}).Err()
}

// StreamEvent is an event as read back from the stream.
type StreamEvent struct {
	StreamID     string                 `json:"streamId"`
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	SessionID    uint64                 `json:"sessionId,omitempty"`
	AgendaItemID uint64                 `json:"agendaItemId,omitempty"`
	PollID       uint64                 `json:"pollId,omitempty"`
	Time         int64                  `json:"time"`
	Fields       map[string]interface{} `json:"fields,omitempty"`
}

// Read blocks up to block for events after lastID ("$" for new ones only).
// It returns no events and no error when the wait times out.
func (s *EventStream) Read(ctx context.Context, lastID string, block time.Duration) ([]StreamEvent, error) {
	streams, err := s.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, lastID},
		Count:   50,
		Block:   block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []StreamEvent
	for _, st := range streams {
		for _, msg := range st.Messages {
			out = append(out, parseStreamEvent(msg.ID, msg.Values))
		}
	}
	return out, nil
}

// eventValues flattens an event into stream fields. Voter ids stay out of
// the stream; display screens are public.
func eventValues(ev council.Event, now time.Time) (map[string]interface{}, error) {
	values := map[string]interface{}{
		"id":   uuid.NewString(),
		"type": ev.Type,
		"time": now.Unix(),
	}
	if ev.SessionID != 0 {
		values["session_id"] = ev.SessionID
	}
	if ev.AgendaItemID != 0 {
		values["agenda_item_id"] = ev.AgendaItemID
	}
	if ev.PollID != 0 {
		values["poll_id"] = ev.PollID
	}
	if len(ev.Fields) > 0 {
		raw, err := json.Marshal(ev.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode %s fields: %w", ev.Type, err)
		}
		values["fields"] = string(raw)
	}
	return values, nil
}

func parseStreamEvent(streamID string, values map[string]interface{}) StreamEvent {
	ev := StreamEvent{StreamID: streamID}
	if v, ok := values["id"].(string); ok {
		ev.ID = v
	}
	if v, ok := values["type"].(string); ok {
		ev.Type = v
	}
	if v, ok := values["time"].(string); ok {
		ev.Time, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := values["session_id"].(string); ok {
		ev.SessionID, _ = strconv.ParseUint(v, 10, 64)
	}
	if v, ok := values["agenda_item_id"].(string); ok {
		ev.AgendaItemID, _ = strconv.ParseUint(v, 10, 64)
	}
	if v, ok := values["poll_id"].(string); ok {
		ev.PollID, _ = strconv.ParseUint(v, 10, 64)
	}
	if v, ok := values["fields"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &ev.Fields); err != nil {
			log.Printf("events: bad fields on %s: %v", streamID, err)
		}
	}
	return ev
}
