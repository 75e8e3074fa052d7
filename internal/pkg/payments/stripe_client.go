package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/taekup/taekup-server/internal/pkg/env"
)

// defaultStripeAPIBase is the Stripe REST endpoint. Overridable in tests via
// StripeClientConfig.BaseURL.
const defaultStripeAPIBase = "https://api.stripe.com"

// StripeClientConfig holds the configuration for creating a StripeClient.
type StripeClientConfig struct {
	SecretKey string
	BaseURL   string
}

// StripeClient talks to the Stripe REST API directly over net/http with
// form-encoded requests. The stripe-go module supplies only the pinned API
// version and webhook signature verification; keeping the HTTP layer in our
// hands makes httptest-based testing straightforward.
type StripeClient struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewStripeClient(cfg StripeClientConfig) *StripeClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultStripeAPIBase
	}
	return &StripeClient{
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// NewStripeClientFromEnv builds a client from STRIPE_SECRET_KEY.
func NewStripeClientFromEnv() *StripeClient {
	return NewStripeClient(StripeClientConfig{
		SecretKey: env.GetEnv("STRIPE_SECRET_KEY", ""),
		BaseURL:   env.GetEnv("STRIPE_API_BASE_URL", ""),
	})
}

func (s *StripeClient) RetrieveCustomer(ctx context.Context, id string) (*Customer, error) {
	var out Customer
	if err := s.doGet(ctx, "/v1/customers/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StripeClient) RetrieveSubscription(ctx context.Context, id string) (*Subscription, error) {
	var out Subscription
	if err := s.doGet(ctx, "/v1/subscriptions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StripeClient) RetrievePrice(ctx context.Context, id string) (*Price, error) {
	var out Price
	if err := s.doGet(ctx, "/v1/prices/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StripeClient) RetrieveProduct(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := s.doGet(ctx, "/v1/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCheckoutSession creates a subscription-mode Checkout Session and
// returns its redirect URL.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	params := url.Values{}
	params.Set("mode", "subscription")
	params.Set("success_url", in.SuccessURL)
	params.Set("cancel_url", in.CancelURL)
	params.Set("line_items[0][price]", in.PriceID)
	params.Set("line_items[0][quantity]", "1")
	if in.CustomerEmail != "" {
		params.Set("customer_email", in.CustomerEmail)
	}
	if in.ClientReferenceID != "" {
		params.Set("client_reference_id", in.ClientReferenceID)
	}
	for k, v := range in.Metadata {
		params.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var out CheckoutSession
	if err := s.doPost(ctx, "/v1/checkout/sessions", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StripeClient) doGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := s.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *StripeClient) doPost(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, out)
}

func (s *StripeClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Stripe-Version", stripe.APIVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var stripeErr struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &stripeErr); jsonErr == nil && stripeErr.Error.Message != "" {
			return fmt.Errorf("stripe %s %s: status=%d code=%s: %s",
				req.Method, req.URL.Path, resp.StatusCode, stripeErr.Error.Code, stripeErr.Error.Message)
		}
		return fmt.Errorf("stripe %s %s: status=%d body=%s", req.Method, req.URL.Path, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("stripe %s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
