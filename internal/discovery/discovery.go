// Package discovery implements target discovery (C3): enumerating reachable
// Diretta DACs on the local network and measuring the path MTU to a chosen
// target.
//
// Grounded on src/dns_sd.go, which uses the pure-Go
// github.com/brutella/dnssd package to announce a service over mDNS/DNS-SD
// without a system daemon or C library dependency; here the same library is
// used the other direction, to browse for Diretta sinks advertising
// themselves under the service type below.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/brutella/dnssd"

	"github.com/silvertone-audio/direttasync/internal/logging"
)

// ServiceType is the DNS-SD service type Diretta sinks advertise themselves
// under on the local network.
const ServiceType = "_diretta-sink._udp"

// ErrNoTargetsFound is returned when no Diretta sink answered the browse.
var ErrNoTargetsFound = errors.New("discovery: no targets found")

// ErrFinderOpenFailed is returned when the underlying mDNS responder could
// not be started.
var ErrFinderOpenFailed = errors.New("discovery: finder open failed")

// Target describes one reachable DAC.
type Target struct {
	Address   string // host:port
	Name      string
	ProductID string
}

var log = logging.For("discovery")

// Finder enumerates Diretta targets on the local network. The zero value
// is ready to use.
type Finder struct {
	// BrowseTimeout bounds how long ListTargets waits for mDNS responses.
	BrowseTimeout time.Duration
}

func (f *Finder) browseTimeout() time.Duration {
	if f.BrowseTimeout <= 0 {
		return 1500 * time.Millisecond
	}

	return f.BrowseTimeout
}

// ListTargets enumerates every reachable target. It never blocks longer
// than BrowseTimeout.
func (f *Finder) ListTargets(ctx context.Context) ([]Target, error) {
	ctx, cancel := context.WithTimeout(ctx, f.browseTimeout())
	defer cancel()

	var found []Target

	addFn := func(e dnssd.BrowseEntry) {
		found = append(found, Target{
			Address:   fmt.Sprintf("%s:%d", firstIP(e), e.Port),
			Name:      e.Name,
			ProductID: e.Text["product_id"],
		})
	}
	rmvFn := func(dnssd.BrowseEntry) {}

	err := dnssd.LookupType(ctx, ServiceType, addFn, rmvFn)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %w", ErrFinderOpenFailed, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })

	log.Debug("browse complete", "found", len(found))

	return found, nil
}

func firstIP(e dnssd.BrowseEntry) string {
	if len(e.IPs) == 0 {
		return ""
	}

	return e.IPs[0].String()
}

// Discover resolves one Target out of ListTargets' results, using the
// selection rule below.
func (f *Finder) Discover(ctx context.Context, nameFilter string, index int) (Target, error) {
	targets, err := f.ListTargets(ctx)
	if err != nil {
		return Target{}, err
	}

	return selectTarget(targets, nameFilter, index)
}

// selectTarget implements the target selection rule in isolation from
// the mDNS browse: if a name filter is set, narrow to matches first; then
// if exactly one target remains, pick it; else if index is in range, pick
// it; else pick the first.
func selectTarget(targets []Target, nameFilter string, index int) (Target, error) {
	if nameFilter != "" {
		filtered := make([]Target, 0, len(targets))

		for _, t := range targets {
			if t.Name == nameFilter {
				filtered = append(filtered, t)
			}
		}

		targets = filtered
	}

	if len(targets) == 0 {
		return Target{}, ErrNoTargetsFound
	}

	if len(targets) == 1 {
		return targets[0], nil
	}

	if index >= 0 && index < len(targets) {
		return targets[index], nil
	}

	return targets[0], nil
}
