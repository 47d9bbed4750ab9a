package rembg

import (
	"context"
	"fmt"
	"time"

	nhttp "github.com/chaos-io/cutout/util/http"
)

// Account is the remaining quota of a remove.bg API key.
type Account struct {
	TotalCredits        float64
	SubscriptionCredits float64
	PayAsYouGoCredits   float64
	FreeCalls           int
	Sizes               string
}

type accountResp struct {
	Data struct {
		Attributes struct {
			Credits struct {
				Total        float64 `json:"total"`
				Subscription float64 `json:"subscription"`
				Payg         float64 `json:"payg"`
			} `json:"credits"`
			API struct {
				FreeCalls int    `json:"free_calls"`
				Sizes     string `json:"sizes"`
			} `json:"api"`
		} `json:"attributes"`
	} `json:"data"`
}

/*
	curl https://api.remove.bg/v1.0/account -H "X-Api-Key: $API_KEY"

{"data": {"attributes": {"credits": {"total": 200, "subscription": 150, "payg": 50},
"api": {"free_calls": 50, "sizes": "all"}}}}
*/
func (r *RemoveBG) Account(ctx context.Context) (*Account, error) {
	resp := &accountResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: r.baseURL + accountPath,
		Method:     "GET",
		Header: map[string]string{
			apiKeyHeader: r.apiKey,
			"Accept":     jsonContentType,
		},
		Response: resp,
		Timeout:  min(r.timeout, 10*time.Second),
	}
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("%s account: %w", RemoveBGModel, err)
	}

	attrs := resp.Data.Attributes
	return &Account{
		TotalCredits:        attrs.Credits.Total,
		SubscriptionCredits: attrs.Credits.Subscription,
		PayAsYouGoCredits:   attrs.Credits.Payg,
		FreeCalls:           attrs.API.FreeCalls,
		Sizes:               attrs.API.Sizes,
	}, nil
}
