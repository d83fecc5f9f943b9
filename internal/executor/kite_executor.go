package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"breakout-algo-trader/internal/model"

	"go.uber.org/zap"
)

// KiteConfig carries everything the Kite Connect REST venue needs.
type KiteConfig struct {
	RESTURL       string // e.g. https://api.kite.trade
	APIKey        string
	AccessToken   string
	TradingSymbol string // e.g. NIFTY24SEPFUT
	Exchange      string // e.g. NFO
	Product       string // e.g. NRML
	Variety       string // e.g. regular
}

// KiteExecutor implements Venue against the Kite Connect HTTP API.
type KiteExecutor struct {
	cfg    *KiteConfig
	client *http.Client
	logger *zap.Logger
}

func NewKiteExecutor(cfg *KiteConfig, logger *zap.Logger) *KiteExecutor {
	if cfg.Variety == "" {
		cfg.Variety = "regular"
	}
	return &KiteExecutor{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With(zap.String("venue", "kite")),
	}
}

type kiteOrderResponse struct {
	Status string `json:"status"`
	Data   struct {
		OrderID string `json:"order_id"`
	} `json:"data"`
	Message string `json:"message"`
}

type kiteMarginsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Equity struct {
			Net float64 `json:"net"`
		} `json:"equity"`
	} `json:"data"`
	Message string `json:"message"`
}

// SubmitMarketOrder posts a regular market order for the configured contract.
func (e *KiteExecutor) SubmitMarketOrder(ctx context.Context, side model.Side, quantity int64) (string, error) {
	form := url.Values{}
	form.Set("tradingsymbol", e.cfg.TradingSymbol)
	form.Set("exchange", e.cfg.Exchange)
	form.Set("transaction_type", string(side))
	form.Set("quantity", strconv.FormatInt(quantity, 10))
	form.Set("product", e.cfg.Product)
	form.Set("order_type", "MARKET")

	endpoint := fmt.Sprintf("%s/orders/%s", strings.TrimRight(e.cfg.RESTURL, "/"), e.cfg.Variety)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", execErr(KindNetwork, "order", err)
	}
	e.authorize(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", execErr(KindNetwork, "order", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", execErr(KindNetwork, "order", err)
	}

	var parsed kiteOrderResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", execErr(KindNetwork, "order", fmt.Errorf("bad response: %w", err))
	}

	if resp.StatusCode != http.StatusOK || parsed.Status != "success" {
		kind := KindRejected
		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
			kind = KindAuth
		}
		return "", execErr(kind, "order", fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Message))
	}

	e.logger.Info("Order placed",
		zap.String("side", string(side)),
		zap.Int64("quantity", quantity),
		zap.String("order_id", parsed.Data.OrderID))
	return parsed.Data.OrderID, nil
}

// FetchAvailableCapital reads the net cash available in the equity segment.
func (e *KiteExecutor) FetchAvailableCapital(ctx context.Context) (float64, error) {
	endpoint := strings.TrimRight(e.cfg.RESTURL, "/") + "/user/margins"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, execErr(KindNetwork, "margins", err)
	}
	e.authorize(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, execErr(KindNetwork, "margins", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, execErr(KindNetwork, "margins", err)
	}

	var parsed kiteMarginsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, execErr(KindNetwork, "margins", fmt.Errorf("bad response: %w", err))
	}

	if resp.StatusCode != http.StatusOK || parsed.Status != "success" {
		kind := KindRejected
		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
			kind = KindAuth
		}
		return 0, execErr(kind, "margins", fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Message))
	}

	e.logger.Info("Fetched account margins", zap.Float64("net_cash", parsed.Data.Equity.Net))
	return parsed.Data.Equity.Net, nil
}

func (e *KiteExecutor) authorize(req *http.Request) {
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", e.cfg.APIKey, e.cfg.AccessToken))
}
