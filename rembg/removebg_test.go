package rembg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	nhttp "github.com/chaos-io/cutout/util/http"
	"github.com/chaos-io/cutout/util/http/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	inputImage  = []byte("input image bytes")
	outputImage = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}
)

func TestRemoveBG_Remove(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1.0/removebg", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		var req removeReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(inputImage), req.ImageFileB64)
		assert.Equal(t, "regular", req.Size)
		assert.Equal(t, "auto", req.Type)
		assert.Equal(t, "png", req.Format)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"result_b64":"` + base64.StdEncoding.EncodeToString(outputImage) + `","foreground_type":"person"}}`))
	}))
	defer server.Close()

	r := NewRemoveBG("secret", WithBaseURL(server.URL+"/v1.0/"))
	got, err := r.Remove(context.Background(), inputImage)
	require.NoError(t, err)
	assert.Equal(t, outputImage, got)
}

func TestRemoveBG_Remove_ProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantErrMsg string
		wantErr    error
	}{
		{
			name:       "API Key 无效",
			status:     http.StatusForbidden,
			body:       `{"errors":[{"title":"API Key invalid","code":"auth_failed"}]}`,
			wantErrMsg: "status 403",
		},
		{
			name:       "额度用完",
			status:     http.StatusPaymentRequired,
			body:       `{"errors":[{"title":"Insufficient credits"}]}`,
			wantErrMsg: "status 402",
		},
		{
			name:       "响应不是 JSON",
			status:     http.StatusOK,
			body:       `<html>`,
			wantErrMsg: "unmarshal response",
		},
		{
			name:    "结果为空",
			status:  http.StatusOK,
			body:    `{"data":{}}`,
			wantErr: ErrEmptyResult,
		},
		{
			name:       "结果不是 base64",
			status:     http.StatusOK,
			body:       `{"data":{"result_b64":"%%%"}}`,
			wantErrMsg: "decode result",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewRemoveBG("secret", WithBaseURL(server.URL)).Remove(context.Background(), inputImage)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantErrMsg != "" {
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			}
		})
	}
}

func TestRemoveBG_Remove_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	r := NewRemoveBG("secret", WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))
	_, err := r.Remove(context.Background(), inputImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestRemoveBG_Remove_MockClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	cli := mocks.NewMockIClient(ctrl)

	cli.EXPECT().
		DoHTTPRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *nhttp.RequestParam) error {
			assert.Equal(t, DefaultBaseURL+"/removebg", p.RequestURI)
			assert.Equal(t, "key", p.Header["X-Api-Key"])
			assert.Equal(t, 5*time.Second, p.Timeout)
			resp := p.Response.(*removeResp)
			resp.Data.ResultB64 = base64.StdEncoding.EncodeToString(outputImage)
			return nil
		})

	r := NewRemoveBG("key", WithClient(cli), WithTimeout(5*time.Second))
	got, err := r.Remove(context.Background(), inputImage)
	require.NoError(t, err)
	assert.Equal(t, outputImage, got)
}

func TestRemoveBG_Remove_MockClientError(t *testing.T) {
	ctrl := gomock.NewController(t)
	cli := mocks.NewMockIClient(ctrl)
	cause := errors.New("connection refused")
	cli.EXPECT().DoHTTPRequest(gomock.Any(), gomock.Any()).Return(cause)

	_, err := NewRemoveBG("key", WithClient(cli)).Remove(context.Background(), inputImage)
	assert.ErrorIs(t, err, cause)
}

func TestRemoveBG_Account(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/account", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`{"data":{"attributes":{"credits":{"total":200,"subscription":150,"payg":50},"api":{"free_calls":42,"sizes":"all"}}}}`))
	}))
	defer server.Close()

	acc, err := NewRemoveBG("secret", WithBaseURL(server.URL)).Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Account{
		TotalCredits:        200,
		SubscriptionCredits: 150,
		PayAsYouGoCredits:   50,
		FreeCalls:           42,
		Sizes:               "all",
	}, acc)
}

func TestRemoveBG_Account_Error(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewRemoveBG("bad", WithBaseURL(server.URL)).Account(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
