// Package client uploads images to the background-removal endpoint.
package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chaos-io/cutout/models"
	"github.com/chaos-io/cutout/util"
	nhttp "github.com/chaos-io/cutout/util/http"
)

const (
	MaxImageBytes  = 10 << 20
	RemovePath     = "/api/remove-background"
	defaultTimeout = 60 * time.Second
)

var (
	ErrNotImage = errors.New("please upload an image file (PNG, JPG, etc.)")
	ErrTooLarge = errors.New("please upload an image smaller than 10MB")
)

type Client struct {
	baseURL string
	cli     nhttp.IClient
}

func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, nhttp.NewHTTPClientWithTimeout(defaultTimeout))
}

func NewWithHTTPClient(baseURL string, cli nhttp.IClient) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cli:     cli,
	}
}

// Validate checks the payload the way the upload form does before any
// request is made.
func Validate(data []byte) error {
	if len(data) > MaxImageBytes {
		return ErrTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return ErrNotImage
	}
	return nil
}

// LoadFile reads and validates an image file from disk.
func LoadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxImageBytes {
		return nil, ErrTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// RemoveBackground submits data and returns the processed PNG bytes.
// The returned error carries the server's message when there is one.
func (c *Client) RemoveBackground(ctx context.Context, data []byte) ([]byte, *models.RemovalResult, error) {
	if err := Validate(data); err != nil {
		return nil, nil, err
	}

	res := &models.RemovalResult{}
	reqParam := &nhttp.RequestParam{
		RequestURI: c.baseURL + RemovePath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": "application/json"},
		Body:       models.RemovalRequest{ImageData: base64.StdEncoding.EncodeToString(data)},
		Response:   res,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		var statusErr *nhttp.StatusError
		if errors.As(err, &statusErr) && res.Error != "" {
			return nil, res, errors.New(res.Error)
		}
		return nil, nil, fmt.Errorf("remove background: %w", err)
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "failed to process image"
		}
		return nil, res, errors.New(msg)
	}

	_, out, err := util.DecodeDataURI(res.ProcessedImageURL)
	if err != nil {
		return nil, res, fmt.Errorf("decode processed image: %w", err)
	}
	return out, res, nil
}
