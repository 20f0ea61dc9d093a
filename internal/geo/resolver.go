package geo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultEndpoint answers with the location of the calling address.
	DefaultEndpoint = "https://ipinfo.io/json"

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second

	unknownCoordinate = "Unknown"
	unknownPlace      = "Unknown place"
)

var errUnavailable = errors.New("location unavailable")

// Estimate is an approximate location. Coordinates are decimal strings so
// the unknown sentinel fits the same fields.
type Estimate struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	PlaceName string `json:"place_name"`
}

// Unknown is the estimate used whenever the lookup fails.
func Unknown() Estimate {
	return Estimate{
		Latitude:  unknownCoordinate,
		Longitude: unknownCoordinate,
		PlaceName: unknownPlace,
	}
}

// Known reports whether the estimate carries coordinates.
func (e Estimate) Known() bool {
	return e.Latitude != unknownCoordinate && e.Longitude != unknownCoordinate
}

// Locator resolves the server's approximate location.
type Locator interface {
	Resolve(ctx context.Context) Estimate
}

// Resolver queries an ipinfo-compatible endpoint.
type Resolver struct {
	endpoint string
	token    string
	timeout  time.Duration
	log      *logrus.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) ResolverOption {
	return func(r *Resolver) {
		if endpoint != "" {
			r.endpoint = endpoint
		}
	}
}

// WithToken sends token as the provider's access token.
func WithToken(token string) ResolverOption {
	return func(r *Resolver) {
		r.token = token
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(logger *logrus.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
		log:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ipinfoResponse is the subset of the provider payload that is used.
type ipinfoResponse struct {
	Loc  string `json:"loc"`
	City string `json:"city"`
}

// Resolve looks up the server location. It never fails: transport errors,
// non-2xx answers, malformed bodies and missing coordinates all produce
// Unknown(). Coordinates without a city get the "Unknown place" name.
func (r *Resolver) Resolve(ctx context.Context) Estimate {
	est, err := r.lookup(ctx)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"endpoint": r.endpoint,
			"error":    err.Error(),
		}).Debug("Location lookup failed")
		return Unknown()
	}
	return est
}

func (r *Resolver) lookup(ctx context.Context) (Estimate, error) {
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Estimate{}, fmt.Errorf("%w: %w", errUnavailable, context.DeadlineExceeded)
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return Estimate{}, fmt.Errorf("%w: %w", errUnavailable, err)
	}

	target, err := r.requestURL()
	if err != nil {
		return Estimate{}, err
	}

	agent := fiber.Get(target)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Estimate{}, fmt.Errorf("%w: %w", errUnavailable, errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return Estimate{}, fmt.Errorf("%w: status %d", errUnavailable, code)
	}

	var payload ipinfoResponse
	if err := jsoniter.Unmarshal(body, &payload); err != nil {
		return Estimate{}, fmt.Errorf("%w: decode: %w", errUnavailable, err)
	}

	lat, lon, err := parseLoc(payload.Loc)
	if err != nil {
		return Estimate{}, err
	}

	place := strings.TrimSpace(payload.City)
	if place == "" {
		place = unknownPlace
	}

	return Estimate{Latitude: lat, Longitude: lon, PlaceName: place}, nil
}

func (r *Resolver) requestURL() (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: endpoint: %w", errUnavailable, err)
	}
	if r.token != "" {
		q := u.Query()
		q.Set("token", r.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// parseLoc splits "lat,lon" and re-formats both parts as plain decimals.
func parseLoc(loc string) (string, string, error) {
	parts := strings.Split(loc, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: loc %q", errUnavailable, loc)
	}

	coords := make([]string, 2)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return "", "", fmt.Errorf("%w: loc %q: %w", errUnavailable, loc, err)
		}
		coords[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return coords[0], coords[1], nil
}
