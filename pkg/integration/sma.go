package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/energywise/energywise/pkg/types"
)

func newSMA() *provider {
	p := newProvider(types.IntegrationInfo{
		ID:          types.IntegrationSMA,
		Name:        "SMA",
		Description: "Integre com o portal SMA Sunny Portal.",
		Credentials: []types.IntegrationCredential{
			{Field: "systemId", Name: "System ID", Type: "string", Required: true},
			{Field: "apiKey", Name: "Access Token", Type: "password", Required: true},
		},
	}, "https://monitoring.smaapis.de/v1")
	p.validate = func(c types.Credentials) error {
		if c.SMA == nil {
			return fmt.Errorf("%w: sma", ErrMissingCredentials)
		}
		return requireFields(types.IntegrationSMA,
			[2]string{"systemId", c.SMA.SystemID},
			[2]string{"apiKey", c.SMA.APIKey},
		)
	}
	p.check = func(ctx context.Context, client *http.Client, baseURL string, c types.Credentials) error {
		req, err := newGetRequest(ctx, baseURL, nil, "plants", c.SMA.SystemID)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.SMA.APIKey)
		return doRequest(client, req, nil)
	}
	return p
}
