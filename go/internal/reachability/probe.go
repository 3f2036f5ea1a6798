// Package reachability decides whether a sync cycle may talk to the network.
package reachability

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/clients"
)

// DefaultProbeURL answers 204 with an empty body when the internet is reachable
const DefaultProbeURL = "https://clients3.google.com/generate_204"

// Status is the outcome of one probe
type Status struct {
	Connected         bool `json:"connected"`
	InternetReachable bool `json:"internet_reachable"`
}

// Online reports whether both link and internet reachability hold
func (s Status) Online() bool {
	return s.Connected && s.InternetReachable
}

// Probe reports connectivity before a sync cycle runs
type Probe interface {
	Check(ctx context.Context) (Status, error)
}

// InterfaceLister returns the host network interfaces
type InterfaceLister func() ([]net.Interface, error)

// NetProbe checks for an up, non-loopback interface and then fetches a
// known 204 endpoint. A captive portal answering 200 counts as unreachable.
type NetProbe struct {
	client     *clients.BaseClient
	interfaces InterfaceLister
	timeout    time.Duration
}

// NewNetProbe creates a probe against probeURL
func NewNetProbe(probeURL string, timeout time.Duration) *NetProbe {
	if probeURL == "" {
		probeURL = DefaultProbeURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := clients.NewBaseClient(probeURL)
	client.SetTimeout(timeout)
	client.SetHeader("Cache-Control", "no-cache")

	return &NetProbe{
		client:     client,
		interfaces: net.Interfaces,
		timeout:    timeout,
	}
}

// WithInterfaces replaces interface discovery
func (p *NetProbe) WithInterfaces(list InterfaceLister) *NetProbe {
	p.interfaces = list
	return p
}

// Check runs the link test and, when it passes, the internet test
func (p *NetProbe) Check(ctx context.Context) (Status, error) {
	ifaces, err := p.interfaces()
	if err != nil {
		return Status{}, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var st Status
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			st.Connected = true
			break
		}
	}
	if !st.Connected {
		return st, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, _, err := p.client.Do(ctx, http.MethodGet, "", nil, 512)
	if err != nil {
		log.Debug().Err(err).Msg("internet probe failed")
		return st, nil
	}
	st.InternetReachable = status == http.StatusNoContent
	if !st.InternetReachable {
		log.Debug().Int("status", status).Msg("internet probe got unexpected status")
	}
	return st, nil
}

// Static is a Probe with a settable answer
type Static struct {
	mu     sync.Mutex
	status Status
	err    error
}

// NewStatic creates a Static probe reporting online or fully offline
func NewStatic(online bool) *Static {
	return &Static{status: Status{Connected: online, InternetReachable: online}}
}

// Set changes the reported status
func (s *Static) Set(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// SetOnline is shorthand for Set with both flags equal
func (s *Static) SetOnline(online bool) {
	s.Set(Status{Connected: online, InternetReachable: online})
}

// SetError makes Check fail with err
func (s *Static) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Static) Check(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.err
}
