package companion

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/bus"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/resilience"
	"github.com/bytedance/sonic"
)

// ServiceName is the bus service forwarding requests to the companion
const ServiceName = "companion.request"

// Bind provides ServiceName on b. The returned function withdraws it.
func (c *Client) Bind(b *bus.Bus) func() {
	b.Provide(ServiceName, func(ctx context.Context, input interface{}) (interface{}, error) {
		req, err := toRequest(input)
		if err != nil {
			return nil, err
		}
		return c.Do(ctx, req)
	})
	return func() { b.Withdraw(ServiceName) }
}

// toRequest accepts a Request or anything that encodes like one, such as a
// map decoded from a script or an HTTP body
func toRequest(input interface{}) (Request, error) {
	switch v := input.(type) {
	case Request:
		return v, nil
	case *Request:
		if v == nil {
			return Request{}, fmt.Errorf("%s: nil request", ServiceName)
		}
		return *v, nil
	}

	data, err := sonic.Marshal(input)
	if err != nil {
		return Request{}, fmt.Errorf("%s: encode input: %w", ServiceName, err)
	}
	var req Request
	if err := sonic.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%s: invalid request: %w", ServiceName, err)
	}
	if req.Path == "" {
		return Request{}, fmt.Errorf("%s: path is required", ServiceName)
	}
	return req, nil
}

// Status summarises the companion connection
type Status struct {
	Enabled   bool              `json:"enabled"`
	Streaming bool              `json:"streaming"`
	Breaker   resilience.Status `json:"breaker"`
}

// Bridge pairs the REST client with the push stream
type Bridge struct {
	Client *Client
	Stream *Stream
}

// Start binds the request service and runs the stream until ctx ends. The
// returned function withdraws the service.
func (br *Bridge) Start(ctx context.Context, b *bus.Bus) func() {
	unbind := br.Client.Bind(b)
	if br.Stream != nil {
		go br.Stream.Run(ctx)
	}
	return unbind
}

// Status returns the bridge status
func (br *Bridge) Status() Status {
	if br == nil || br.Client == nil {
		return Status{}
	}
	st := Status{Enabled: true, Breaker: br.Client.Breaker()}
	if br.Stream != nil {
		st.Streaming = br.Stream.Connected()
	}
	return st
}
