package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	appcatalog "github.com/yutashop/storefront/internal/application/catalog"
	"github.com/yutashop/storefront/internal/domain/auth"
	domcatalog "github.com/yutashop/storefront/internal/domain/catalog"
	"github.com/yutashop/storefront/internal/observability"
)

const componentStoreAPI = "store_api_client"

// Client talks to the remote store API: catalog, product detail, and the
// credential exchange. All calls are read-only from the storefront's point
// of view; stock never comes from the remote side.
type Client struct {
	baseURL string
	http    *http.Client
	log     observability.Logger
}

func New(baseURL string, tel observability.Observability) *Client {
	baseLog := observability.NopLogger()
	if tel != nil {
		baseLog = tel.Logger()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     baseLog.With(observability.F("component", componentStoreAPI)),
	}
}

type productPayload struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Rating   struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	} `json:"rating"`
}

func (p productPayload) toProduct() appcatalog.Product {
	return appcatalog.Product{
		ID:       p.ID,
		Title:    p.Title,
		Price:    decimal.NewFromFloat(p.Price),
		Image:    p.Image,
		Category: p.Category,
		Rating: domcatalog.Rating{
			Rate:  p.Rating.Rate,
			Count: p.Rating.Count,
		},
	}
}

func (c *Client) FetchCatalog(ctx context.Context) ([]appcatalog.Product, error) {
	var payload []productPayload
	if err := c.getJSON(ctx, "/products", &payload); err != nil {
		return nil, fmt.Errorf("storeapi: fetch catalog: %w", err)
	}

	products := make([]appcatalog.Product, 0, len(payload))
	for _, p := range payload {
		products = append(products, p.toProduct())
	}
	return products, nil
}

func (c *Client) FetchProduct(ctx context.Context, id int) (*appcatalog.Product, error) {
	var payload productPayload
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), &payload); err != nil {
		return nil, fmt.Errorf("storeapi: fetch product %d: %w", id, err)
	}
	product := payload.toProduct()
	return &product, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type userPayload struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login exchanges credentials for a token, then resolves the user record
// from the user listing. An unknown username after a granted token is
// treated as invalid credentials.
func (c *Client) Login(ctx context.Context, username, password string) (auth.Session, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return auth.Session{}, fmt.Errorf("storeapi: login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return auth.Session{}, fmt.Errorf("storeapi: login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return auth.Session{}, fmt.Errorf("storeapi: login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	var granted loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&granted); err != nil {
		return auth.Session{}, fmt.Errorf("storeapi: login: decode: %w", err)
	}
	if granted.Token == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	var users []userPayload
	if err := c.getJSON(ctx, "/users", &users); err != nil {
		return auth.Session{}, fmt.Errorf("storeapi: login: users: %w", err)
	}
	for _, u := range users {
		if u.Username == username {
			return auth.Session{
				User: &auth.User{
					ID:       u.ID,
					Username: u.Username,
					Email:    u.Email,
				},
				Token: granted.Token,
			}, nil
		}
	}
	return auth.Session{}, auth.ErrInvalidCredentials
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
