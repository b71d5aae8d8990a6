package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/energywise/energywise/pkg/common"
	"github.com/energywise/energywise/pkg/log"
	"github.com/energywise/energywise/pkg/types"
)

// provider implements Provider. The variant files fill in what differs
// between vendors.
type provider struct {
	info       types.IntegrationInfo
	client     *http.Client
	defaultURL string
	// when false credentials are only checked for completeness
	verifyRemote bool

	// validate checks the provider's credential variant.
	validate func(types.Credentials) error
	// check asks the provider's API whether creds are valid.
	check func(ctx context.Context, client *http.Client, baseURL string, creds types.Credentials) error
}

var _ Provider = (*provider)(nil)

func (p *provider) Info() types.IntegrationInfo {
	info := p.info
	info.Credentials = append([]types.IntegrationCredential(nil), p.info.Credentials...)
	return info
}

func (p *provider) SubmitCredentials(ctx context.Context, creds types.Credentials, now time.Time) (types.IntegrationState, error) {
	ctx = log.WithAttrs(ctx, slog.String("integration", string(p.info.ID)))
	failed := types.IntegrationState{ID: p.info.ID, Status: types.IntegrationFailed}

	if err := p.validate(creds); err != nil {
		failed.LastError = err.Error()
		return failed, err
	}
	interval, err := parseInterval(creds.DataInterval)
	if err != nil {
		failed.LastError = err.Error()
		return failed, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if p.verifyRemote {
		if err := p.verify(ctx, creds); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "integration credential verification failed", slog.Any("error", err))
			failed.LastError = err.Error()
			return failed, fmt.Errorf("credential verification failed: %w", err)
		}
	}

	log.Ctx(ctx).InfoContext(ctx, "integration connected", slog.Duration("interval", interval))
	return types.IntegrationState{
		ID:           p.info.ID,
		Status:       types.IntegrationConnected,
		ConnectionID: uuid.NewString(),
		LastReading:  now,
		NextUpdate:   now.Add(interval),
	}, nil
}

func (p *provider) Disconnect(ctx context.Context, prev types.IntegrationState) types.IntegrationState {
	log.Ctx(ctx).InfoContext(ctx, "integration disconnected", slog.String("integration", string(p.info.ID)))
	return types.IntegrationState{
		ID:          p.info.ID,
		Status:      types.IntegrationDisconnected,
		LastReading: prev.LastReading,
	}
}

func (p *provider) Status(prev types.IntegrationState, now time.Time) types.IntegrationState {
	if prev.Status == "" {
		prev.ID = p.info.ID
		prev.Status = types.IntegrationDisconnected
	}
	if prev.Status == types.IntegrationConnected && !prev.NextUpdate.IsZero() && now.After(prev.NextUpdate.Add(expiryGrace)) {
		prev.Status = types.IntegrationExpired
	}
	return prev
}

func (p *provider) verify(ctx context.Context, creds types.Credentials) error {
	base := p.defaultURL
	if creds.APIURL != "" {
		base = creds.APIURL
	}
	return p.check(ctx, p.client, base, creds)
}

func newProvider(info types.IntegrationInfo, defaultURL string) *provider {
	return &provider{
		info:       info,
		client:     common.HTTPClient(30 * time.Second),
		defaultURL: defaultURL,
	}
}

// parseInterval accepts Go durations ("15m") and the "15 min" form.
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultDataInterval, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("data interval must be positive: %s", s)
		}
		return d, nil
	}
	if n, ok := strings.CutSuffix(s, "min"); ok {
		if m, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && m > 0 {
			return time.Duration(m) * time.Minute, nil
		}
	}
	return 0, fmt.Errorf("invalid data interval: %q", s)
}

func joinURL(base string, elem ...string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u.Path, err = url.JoinPath(u.Path, elem...)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func newGetRequest(ctx context.Context, base string, params url.Values, elem ...string) (*http.Request, error) {
	u, err := joinURL(base, elem...)
	if err != nil {
		return nil, err
	}
	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func newPostJSONRequest(ctx context.Context, base string, data any, elem ...string) (*http.Request, error) {
	u, err := joinURL(base, elem...)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doRequest sends req and decodes a JSON body into dest when dest isn't nil.
func doRequest(client *http.Client, req *http.Request, dest any) error {
	ctx := req.Context()
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := common.ReadBody(resp)
	var se *common.StatusError
	switch {
	case errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden):
		return fmt.Errorf("%w: status %d", ErrUnauthorized, se.Code)
	case err != nil:
		return err
	}

	if dest == nil {
		log.Ctx(ctx).DebugContext(ctx, "integration request success (no destination)", slog.String("url", req.URL.Redacted()))
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode integration response", slog.Any("error", err))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// requireFields returns ErrMissingCredentials naming the first empty field.
func requireFields(id types.IntegrationID, fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%w: %s %s", ErrMissingCredentials, id, f[0])
		}
	}
	return nil
}
