// Package fingerprint provides secondary.FingerprintSource implementations.
// Identifiers are best effort: two devices may collide and one device may
// report different values across sessions.
package fingerprint

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/example/claimhub/internal/ports/secondary"
)

// ProbeFunc collects the raw characteristics that identify a device.
type ProbeFunc func() ([]string, error)

// Host derives a stable identifier from characteristics of the local machine.
type Host struct {
	probe ProbeFunc
	now   func() time.Time
}

var _ secondary.FingerprintSource = (*Host)(nil)

// NewHost returns a Host that probes the running machine.
func NewHost() *Host {
	return &Host{probe: probeHost, now: time.Now}
}

// NewHostWithProbe returns a Host using a custom probe.
func NewHostWithProbe(probe ProbeFunc) *Host {
	return &Host{probe: probe, now: time.Now}
}

// DeviceID hashes the probed characteristics into a base36 string. When the
// probe fails a random "fallback-" identifier is returned instead of an error.
func (h *Host) DeviceID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	parts, err := h.probe()
	if err != nil || len(parts) == 0 {
		return fmt.Sprintf("fallback-%d-%s", h.now().UnixMilli(), uuid.NewString()[:8]), nil
	}

	return Hash(parts), nil
}

// Hash returns the base36 xxh3 digest of parts.
func Hash(parts []string) string {
	return strconv.FormatUint(xxh3.HashString(strings.Join(parts, "|")), 36)
}

func probeHost() ([]string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to read hostname: %w", err)
	}

	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	zone, offset := time.Now().Zone()

	return []string{
		hostname,
		username,
		runtime.GOOS,
		runtime.GOARCH,
		strconv.Itoa(runtime.NumCPU()),
		zone,
		strconv.Itoa(offset),
	}, nil
}

// Synthetic returns a fresh identifier on every call. It is used when
// duplicate protection is disabled so that no two claims share a device.
type Synthetic struct {
	now func() time.Time
}

var _ secondary.FingerprintSource = (*Synthetic)(nil)

// NewSynthetic returns a Synthetic source.
func NewSynthetic() *Synthetic {
	return &Synthetic{now: time.Now}
}

// DeviceID returns "<unix-millis>-<uuid>".
func (s *Synthetic) DeviceID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), uuid.NewString()), nil
}

// Static always reports the same identifier, typically supplied by --device.
type Static string

var _ secondary.FingerprintSource = Static("")

// DeviceID returns the fixed value, or an error when it is blank.
func (s Static) DeviceID(_ context.Context) (string, error) {
	id := strings.TrimSpace(string(s))
	if id == "" {
		return "", fmt.Errorf("device id is empty")
	}
	return id, nil
}
