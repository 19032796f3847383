/* Copyright 2026 Memora Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package client provides interfaces for interacting with the Memora server
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/context"
	"golang.org/x/time/rate"
)

// ErrInvalidLogin is an error for invalid credentials on login
var ErrInvalidLogin = errors.New("invalid credentials")

// ErrContentTypeMismatch is an error for response content type other than JSON
var ErrContentTypeMismatch = errors.New("content type mismatch")

// rateLimitedTransport limits the rate of the outbound requests so that
// a drain pass does not flood the server
type rateLimitedTransport struct {
	limiter   *rate.Limiter
	transport http.RoundTripper
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(err, "waiting for rate limiter")
	}

	return t.transport.RoundTrip(req)
}

// NewHTTPClient returns an http client that rate limits the outbound requests
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: time.Minute,
		Transport: &rateLimitedTransport{
			limiter:   rate.NewLimiter(rate.Limit(5), 5),
			transport: http.DefaultTransport,
		},
	}
}

// HTTPError is an error from the server with a status code outside 2xx
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("response %d: %s", e.StatusCode, e.Body)
}

// IsNotFound checks if the error is a not found error
func (e HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRateLimited checks if the error is a rate limit error
func (e HTTPError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsInvalid checks if the error is a validation rejection
func (e HTTPError) IsInvalid() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

// IsConflict checks if the error is a conflict error
func (e HTTPError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsUnauthorized checks if the error is an authentication error
func (e HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsTransient classifies an error from a remote call. Network failures,
// server errors and rate limits are retryable. Any 4xx other than a rate
// limit is a definitive rejection.
func IsTransient(err error) bool {
	httpErr, ok := errors.Cause(err).(HTTPError)
	if !ok {
		return true
	}
	if httpErr.IsRateLimited() {
		return true
	}

	return httpErr.StatusCode >= 500
}

func getHTTPClient(ctx context.MemoraCtx) *http.Client {
	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return NewHTTPClient()
}

// doReq does a request to the given path in the api endpoint
func doReq(ctx context.MemoraCtx, method, path string, body io.Reader, token string) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)

	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", ctx.Version)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	res, err := getHTTPClient(ctx).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making http request")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()

		b, err := ioutil.ReadAll(res.Body)
		if err != nil {
			return res, errors.Wrap(err, "reading error response body")
		}

		return res, HTTPError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	return res, nil
}

// doAuthorizedReq does a request to the given path with the bearer token set
func doAuthorizedReq(ctx context.MemoraCtx, token, method, path string, body io.Reader) (*http.Response, error) {
	if token == "" {
		return nil, errors.New("no session token")
	}

	return doReq(ctx, method, path, body, token)
}

// newAuthorizedMultipartReq constructs an authorized request carrying a
// multipart body with the given content type
func newAuthorizedMultipartReq(ctx context.MemoraCtx, token, path, contentType string, body io.Reader) (*http.Request, error) {
	if token == "" {
		return nil, errors.New("no session token")
	}

	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)
	req, err := http.NewRequest("POST", endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", ctx.Version)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	return req, nil
}

func decodeJSON(res *http.Response, dest interface{}) error {
	defer res.Body.Close()

	if !strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		return ErrContentTypeMismatch
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decoding response body")
	}

	return nil
}

// SigninPayload is a payload for /auth/login
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload is a payload for /auth/register
type RegisterPayload struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse is a response from /auth/login and /auth/register
type SigninResponse struct {
	Token     string `json:"token"`
	UserUUID  string `json:"user_uuid"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"`
}

// Signin requests a session token with the given credentials
func Signin(ctx context.MemoraCtx, email, password string) (SigninResponse, error) {
	var ret SigninResponse

	payload := SigninPayload{Email: email, Password: password}
	b, err := json.Marshal(payload)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling payload")
	}

	res, err := doReq(ctx, "POST", "/auth/login", bytes.NewReader(b), "")
	if err != nil {
		if httpErr, ok := errors.Cause(err).(HTTPError); ok && httpErr.IsUnauthorized() {
			return ret, ErrInvalidLogin
		}

		return ret, errors.Wrap(err, "making login request")
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding login response")
	}

	return ret, nil
}

// Register creates an account and requests a session token
func Register(ctx context.MemoraCtx, fullName, email, password string) (SigninResponse, error) {
	var ret SigninResponse

	payload := RegisterPayload{FullName: fullName, Email: email, Password: password}
	b, err := json.Marshal(payload)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling payload")
	}

	res, err := doReq(ctx, "POST", "/auth/register", bytes.NewReader(b), "")
	if err != nil {
		return ret, errors.Wrap(err, "making register request")
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding register response")
	}

	return ret, nil
}
