package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// EventCache is an id -> Event map that remembers insertion order.
// Its JSON form is a plain object; key order survives a round trip.
// The zero value is an empty cache ready to use.
type EventCache struct {
	ids    []string
	events map[string]Event
}

func NewEventCache(events ...Event) *EventCache {
	c := &EventCache{}
	for _, e := range events {
		c.Put(e)
	}

	return c
}

func (c *EventCache) Len() int {
	return len(c.ids)
}

func (c *EventCache) Get(id string) (Event, bool) {
	e, ok := c.events[id]
	return e, ok
}

// Put inserts or replaces an event. A replaced event keeps its position.
func (c *EventCache) Put(e Event) {
	c.put(e.ID, e)
}

func (c *EventCache) put(key string, e Event) {
	if c.events == nil {
		c.events = make(map[string]Event)
	}

	if _, ok := c.events[key]; !ok {
		c.ids = append(c.ids, key)
	}

	c.events[key] = e
}

func (c *EventCache) Delete(id string) {
	if _, ok := c.events[id]; !ok {
		return
	}

	delete(c.events, id)

	for i, k := range c.ids {
		if k == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
}

// Values returns all events in insertion order.
func (c *EventCache) Values() []Event {
	return c.Prefix(len(c.ids))
}

// Prefix returns up to n events in insertion order.
func (c *EventCache) Prefix(n int) []Event {
	if n > len(c.ids) {
		n = len(c.ids)
	}

	if n < 0 {
		n = 0
	}

	out := make([]Event, 0, n)
	for _, id := range c.ids[:n] {
		out = append(out, c.events[id])
	}

	return out
}

// Retain drops every event for which keep returns false and reports how many were dropped.
func (c *EventCache) Retain(keep func(Event) bool) int {
	ids := c.ids[:0:0]
	removed := 0

	for _, id := range c.ids {
		if keep(c.events[id]) {
			ids = append(ids, id)
			continue
		}

		delete(c.events, id)
		removed++
	}

	c.ids = ids

	return removed
}

func (c *EventCache) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i, id := range c.ids {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}

		v, err := json.Marshal(c.events[id])
		if err != nil {
			return nil, err
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (c *EventCache) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errors.New("event cache: invalid json")
	}

	c.ids = nil
	c.events = nil

	res := gjson.ParseBytes(b)
	if res.Type == gjson.Null {
		return nil
	}

	if !res.IsObject() {
		return fmt.Errorf("event cache: expected object, got %s", res.Type)
	}

	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		var e Event
		if err = json.Unmarshal([]byte(value.Raw), &e); err != nil {
			err = fmt.Errorf("event cache: entry %q: %w", key.String(), err)
			return false
		}

		if e.ID == "" {
			e.ID = key.String()
		}

		c.put(key.String(), e)

		return true
	})

	return err
}
