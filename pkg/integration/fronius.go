package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/energywise/energywise/pkg/types"
)

func newFronius() *provider {
	p := newProvider(types.IntegrationInfo{
		ID:          types.IntegrationFronius,
		Name:        "Fronius",
		Description: "Sincronize com seu inversor Fronius Solar.web.",
		Credentials: []types.IntegrationCredential{
			{Field: "apiKey", Name: "API Key", Type: "password", Required: true},
			{Field: "plantId", Name: "PV System ID", Type: "string", Required: true},
		},
	}, "https://api.solarweb.com/swqapi")
	p.validate = func(c types.Credentials) error {
		if c.Fronius == nil {
			return fmt.Errorf("%w: fronius", ErrMissingCredentials)
		}
		return requireFields(types.IntegrationFronius,
			[2]string{"apiKey", c.Fronius.APIKey},
			[2]string{"plantId", c.Fronius.PlantID},
		)
	}
	p.check = func(ctx context.Context, client *http.Client, baseURL string, c types.Credentials) error {
		req, err := newGetRequest(ctx, baseURL, nil, "pvsystems", c.Fronius.PlantID)
		if err != nil {
			return err
		}
		req.Header.Set("AccessKeyValue", c.Fronius.APIKey)
		return doRequest(client, req, nil)
	}
	return p
}
