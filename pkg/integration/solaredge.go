package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/energywise/energywise/pkg/types"
)

type solarEdgeDetails struct {
	Details struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"details"`
}

func newSolarEdge() *provider {
	p := newProvider(types.IntegrationInfo{
		ID:          types.IntegrationSolarEdge,
		Name:        "SolarEdge",
		Description: "Obtenha dados do seu sistema SolarEdge.",
		Credentials: []types.IntegrationCredential{
			{Field: "siteId", Name: "Site ID", Type: "string", Required: true},
			{Field: "apiKey", Name: "API Key", Type: "password", Required: true},
		},
	}, "https://monitoringapi.solaredge.com")
	p.validate = func(c types.Credentials) error {
		if c.SolarEdge == nil {
			return fmt.Errorf("%w: solaredge", ErrMissingCredentials)
		}
		return requireFields(types.IntegrationSolarEdge,
			[2]string{"siteId", c.SolarEdge.SiteID},
			[2]string{"apiKey", c.SolarEdge.APIKey},
		)
	}
	p.check = func(ctx context.Context, client *http.Client, baseURL string, c types.Credentials) error {
		req, err := newGetRequest(ctx, baseURL, url.Values{"api_key": {c.SolarEdge.APIKey}}, "site", c.SolarEdge.SiteID, "details")
		if err != nil {
			return err
		}
		var res solarEdgeDetails
		if err := doRequest(client, req, &res); err != nil {
			return err
		}
		if res.Details.ID == 0 {
			return fmt.Errorf("solaredge site %s not found", c.SolarEdge.SiteID)
		}
		return nil
	}
	return p
}
