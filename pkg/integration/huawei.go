package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/energywise/energywise/pkg/types"
)

type huaweiLoginResult struct {
	Success  bool   `json:"success"`
	FailCode int    `json:"failCode"`
	Message  string `json:"message"`
}

func newHuawei() *provider {
	p := newProvider(types.IntegrationInfo{
		ID:          types.IntegrationHuawei,
		Name:        "Huawei Solar",
		Description: "Conecte seu inversor Huawei FusionSolar.",
		Credentials: []types.IntegrationCredential{
			{Field: "username", Name: "Username", Type: "string", Required: true},
			{Field: "password", Name: "System Code", Type: "password", Required: true},
			{Field: "domain", Name: "Domain", Type: "string", Required: true, Description: "FusionSolar region host, e.g. eu5.fusionsolar.huawei.com"},
			{Field: "stationCode", Name: "Station Code", Type: "string", Required: true},
		},
	}, "")
	p.validate = func(c types.Credentials) error {
		if c.Huawei == nil {
			return fmt.Errorf("%w: huawei", ErrMissingCredentials)
		}
		return requireFields(types.IntegrationHuawei,
			[2]string{"username", c.Huawei.Username},
			[2]string{"password", c.Huawei.Password},
			[2]string{"domain", c.Huawei.Domain},
			[2]string{"stationCode", c.Huawei.StationCode},
		)
	}
	p.check = func(ctx context.Context, client *http.Client, baseURL string, c types.Credentials) error {
		// the northbound API lives on the account's regional domain
		if baseURL == "" {
			baseURL = "https://" + c.Huawei.Domain
		}
		req, err := newPostJSONRequest(ctx, baseURL, map[string]string{
			"userName":   c.Huawei.Username,
			"systemCode": c.Huawei.Password,
		}, "thirdData", "login")
		if err != nil {
			return err
		}
		var res huaweiLoginResult
		if err := doRequest(client, req, &res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%w: huawei failCode %d", ErrUnauthorized, res.FailCode)
		}
		return nil
	}
	return p
}
