package rembg

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/chaos-io/cutout/util"
	nhttp "github.com/chaos-io/cutout/util/http"
)

const (
	RemoveBGModel   = "remove.bg"
	DefaultBaseURL  = "https://api.remove.bg/v1.0"
	DefaultSize     = "regular"
	DefaultType     = "auto"
	apiKeyHeader    = "X-Api-Key"
	removeBGPath    = "/removebg"
	accountPath     = "/account"
	defaultTimeout  = 30 * time.Second
	jsonContentType = "application/json"
)

type RemoveBG struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	size    string
	typ     string
	cli     nhttp.IClient
}

type Option func(*RemoveBG)

func WithBaseURL(url string) Option {
	return func(r *RemoveBG) {
		if url != "" {
			r.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *RemoveBG) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithClient(cli nhttp.IClient) Option {
	return func(r *RemoveBG) {
		r.cli = cli
	}
}

func NewRemoveBG(apiKey string, opts ...Option) *RemoveBG {
	r := &RemoveBG{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		timeout: defaultTimeout,
		size:    DefaultSize,
		typ:     DefaultType,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cli == nil {
		r.cli = nhttp.NewHTTPClientWithTimeout(r.timeout)
	}
	return r
}

type removeReq struct {
	ImageFileB64 string `json:"image_file_b64"`
	Size         string `json:"size"`
	Type         string `json:"type"`
	Format       string `json:"format"`
}

type removeResp struct {
	Data struct {
		ResultB64      string `json:"result_b64"`
		ForegroundType string `json:"foreground_type"`
	} `json:"data"`
}

/*
	curl -X POST https://api.remove.bg/v1.0/removebg \
	  -H "X-Api-Key: $API_KEY" \
	  -H "Accept: application/json" \
	  -H "Content-Type: application/json" \
	  -d '{"image_file_b64": "...", "size": "regular", "type": "auto", "format": "png"}'

{"data": {"result_b64": "iVBORw0...", "foreground_type": "product"}}
*/
func (r *RemoveBG) Remove(ctx context.Context, img []byte) ([]byte, error) {
	defer util.Trace("remove.bg remove")()

	resp := &removeResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: r.baseURL + removeBGPath,
		Method:     "POST",
		Header:     r.header(),
		Body: &removeReq{
			ImageFileB64: base64.StdEncoding.EncodeToString(img),
			Size:         r.size,
			Type:         r.typ,
			Format:       "png",
		},
		Response: resp,
		Timeout:  r.timeout,
	}
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("%s remove: %w", RemoveBGModel, err)
	}

	if resp.Data.ResultB64 == "" {
		return nil, fmt.Errorf("%s remove: %w", RemoveBGModel, ErrEmptyResult)
	}
	out, err := base64.StdEncoding.DecodeString(resp.Data.ResultB64)
	if err != nil {
		return nil, fmt.Errorf("%s remove: decode result: %w", RemoveBGModel, err)
	}
	return out, nil
}

func (r *RemoveBG) header() map[string]string {
	return map[string]string{
		apiKeyHeader:   r.apiKey,
		"Accept":       jsonContentType,
		"Content-Type": jsonContentType,
	}
}
