package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

// Client talks to a running studytimerd.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial connects to the daemon on the session or system bus.
func Dial(bus string) (*Client, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if bus == "system" {
		conn, err = dbus.ConnectSystemBus()
	} else {
		conn, err = dbus.ConnectSessionBus()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s bus: %w", bus, err)
	}

	return &Client{
		conn: conn,
		obj:  conn.Object(ServiceName, dbus.ObjectPath(ObjectPath)),
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Start() (tracker.Status, error) {
	return c.status("Start")
}

func (c *Client) Pause() (tracker.Status, error) {
	return c.status("Pause")
}

func (c *Client) Reset() (tracker.Status, error) {
	return c.status("Reset")
}

func (c *Client) Status() (tracker.Status, error) {
	return c.status("Status")
}

func (c *Client) Preview(topic string) (history.Record, error) {
	return c.record("Preview", topic)
}

func (c *Client) Save(topic string) (history.Record, error) {
	return c.record("Save", topic)
}

func (c *Client) History() ([]history.Record, error) {
	var result string
	if err := c.obj.Call(InterfaceName+".History", 0).Store(&result); err != nil {
		return nil, fromDBusError(err)
	}

	var records []history.Record
	if err := json.Unmarshal([]byte(result), &records); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return records, nil
}

func (c *Client) Delete(id string) error {
	return fromDBusError(c.obj.Call(InterfaceName+".Delete", 0, id).Store())
}

// Watch streams the daemon's Tick signals until ctx is done.
func (c *Client) Watch(ctx context.Context) (<-chan tracker.Status, error) {
	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbus.ObjectPath(ObjectPath)),
		dbus.WithMatchInterface(InterfaceName),
		dbus.WithMatchMember("Tick"),
	); err != nil {
		return nil, fmt.Errorf("add match failed: %w", err)
	}

	signals := make(chan *dbus.Signal, 10)
	c.conn.Signal(signals)

	out := make(chan tracker.Status)
	go func() {
		defer close(out)
		defer c.conn.RemoveSignal(signals)

		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-signals:
				if sig == nil || sig.Name != TickSignal || len(sig.Body) < 1 {
					continue
				}
				body, ok := sig.Body[0].(string)
				if !ok {
					continue
				}
				st, err := decodeStatus(body)
				if err != nil {
					continue
				}
				select {
				case out <- st:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) status(method string) (tracker.Status, error) {
	var result string
	if err := c.obj.Call(InterfaceName+"."+method, 0).Store(&result); err != nil {
		return tracker.Status{}, fromDBusError(err)
	}
	return decodeStatus(result)
}

func (c *Client) record(method, topic string) (history.Record, error) {
	var result string
	if err := c.obj.Call(InterfaceName+"."+method, 0, topic).Store(&result); err != nil {
		return history.Record{}, fromDBusError(err)
	}

	var rec history.Record
	if err := json.Unmarshal([]byte(result), &rec); err != nil {
		return history.Record{}, fmt.Errorf("failed to parse record: %w", err)
	}
	return rec, nil
}
