package ondemand

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sebdeveloper6952/ondemand/domain"
)

const (
	EndpointServiceStatus = "service-status"
	EndpointCheckStatus   = "check-status"
	EndpointRegister      = "register"

	RegtestURL = "http://192.168.1.111:8080/ondemand-channel/"
	MainnetURL = "http://blixtwallet.ddns.net:8080/ondemand-channel/"
)

// CallFunc performs one request against the service. A nil body is sent as a
// GET, anything else is POSTed as JSON. The raw response body is returned.
type CallFunc func(ctx context.Context, endpoint string, body []byte) ([]byte, error)

// NewHTTPCaller returns a CallFunc for the service rooted at baseURL. The
// response body is returned whatever the HTTP status, since the service
// reports business errors in the body.
func NewHTTPCaller(baseURL string, client *http.Client) CallFunc {
	if client == nil {
		client = http.DefaultClient
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return func(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
		method := http.MethodGet
		var reqBody io.Reader = http.NoBody
		if body != nil {
			method = http.MethodPost
			reqBody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, baseURL+endpoint, reqBody)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
		}
		defer res.Body.Close()

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
		}

		return b, nil
	}
}
