package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"stocxer-screener/internal/screener/config"
	"stocxer-screener/internal/screener/dto"
	"stocxer-screener/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ErrMarketDataUnavailable marks a symbol whose snapshot could not be
// resolved. Recoverable per symbol: the scan skips it and continues.
var ErrMarketDataUnavailable = errors.New("market data unavailable")

// MarketDataRepository resolves per-symbol market snapshots and option
// chains from the quote API.
type MarketDataRepository interface {
	GetSnapshot(ctx context.Context, symbol string) (*dto.Snapshot, error)
	GetOptionChain(ctx context.Context, symbol, expiryBucket string) (*dto.OptionChain, error)
}

type marketDataRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	snapshotCache  *cache.Cache
}

// NewMarketDataRepository creates a MarketDataRepository with request
// rate limiting sized to the data source's published limit and a short
// snapshot cache so repeated scans do not refetch the same history.
func NewMarketDataRepository(cfg *config.Config, log *logger.Logger) (MarketDataRepository, error) {
	if cfg.MarketData.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("market_data.max_request_per_minute must be positive")
	}

	cacheTTL := 5 * time.Minute
	if cfg.MarketData.CacheTTL != "" {
		ttl, err := time.ParseDuration(cfg.MarketData.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid market_data.cache_ttl: %w", err)
		}
		cacheTTL = ttl
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.MarketData.MaxRequestPerMinute)
	return &marketDataRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		snapshotCache:  cache.New(cacheTTL, 2*cacheTTL),
	}, nil
}

type candleResponse struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type historyResponse struct {
	Symbol  string           `json:"symbol"`
	Name    string           `json:"name"`
	Candles []candleResponse `json:"candles"`
}

type chainContractResponse struct {
	Strike       float64 `json:"strike"`
	Right        string  `json:"option_type"`
	Expiry       string  `json:"expiry_date"`
	LastPrice    float64 `json:"last_price"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	IV           float64 `json:"iv"`
	Delta        float64 `json:"delta"`
	Gamma        float64 `json:"gamma"`
	Theta        float64 `json:"theta"`
	Vega         float64 `json:"vega"`
}

type chainResponse struct {
	Symbol    string                  `json:"symbol"`
	SpotPrice float64                 `json:"spot_price"`
	Expiry    string                  `json:"expiry_date"`
	Contracts []chainContractResponse `json:"contracts"`
}

func (r *marketDataRepository) GetSnapshot(ctx context.Context, symbol string) (*dto.Snapshot, error) {
	cacheKey := "snapshot:" + symbol
	if cached, found := r.snapshotCache.Get(cacheKey); found {
		snapshot := cached.(dto.Snapshot)
		return &snapshot, nil
	}

	url := fmt.Sprintf("%s/v1/quotes/%s/history?interval=1d&range=6mo", r.cfg.MarketData.BaseURL, symbol)
	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var response historyResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: decode history for %s: %v", ErrMarketDataUnavailable, symbol, err)
	}
	if len(response.Candles) == 0 {
		return nil, fmt.Errorf("%w: empty history for %s", ErrMarketDataUnavailable, symbol)
	}

	snapshot := dto.Snapshot{
		Symbol:  symbol,
		Name:    response.Name,
		Candles: make([]dto.Candle, 0, len(response.Candles)),
	}
	for _, c := range response.Candles {
		snapshot.Candles = append(snapshot.Candles, dto.Candle{
			Time:   time.Unix(c.Time, 0),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	last := snapshot.Candles[len(snapshot.Candles)-1]
	snapshot.Price = last.Close
	snapshot.Volume = last.Volume

	r.snapshotCache.Set(cacheKey, snapshot, cache.DefaultExpiration)

	return &snapshot, nil
}

func (r *marketDataRepository) GetOptionChain(ctx context.Context, symbol, expiryBucket string) (*dto.OptionChain, error) {
	if expiryBucket == "" {
		expiryBucket = "near"
	}

	url := fmt.Sprintf("%s/v1/options/%s/chain?expiry=%s", r.cfg.MarketData.BaseURL, symbol, expiryBucket)
	body, err := r.sendRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var response chainResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: decode chain for %s: %v", ErrMarketDataUnavailable, symbol, err)
	}

	chainExpiry, err := time.Parse("2006-01-02", response.Expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: bad expiry %q for %s", ErrMarketDataUnavailable, response.Expiry, symbol)
	}

	chain := dto.OptionChain{
		Symbol:    symbol,
		SpotPrice: response.SpotPrice,
		Expiry:    chainExpiry,
		Contracts: make([]dto.OptionContract, 0, len(response.Contracts)),
	}
	for _, c := range response.Contracts {
		contractExpiry := chainExpiry
		if c.Expiry != "" {
			if parsed, err := time.Parse("2006-01-02", c.Expiry); err == nil {
				contractExpiry = parsed
			}
		}
		chain.Contracts = append(chain.Contracts, dto.OptionContract{
			Strike:       c.Strike,
			Right:        c.Right,
			Expiry:       contractExpiry,
			LastPrice:    c.LastPrice,
			Volume:       c.Volume,
			OpenInterest: c.OpenInterest,
			IV:           c.IV,
			Greeks: dto.OptionGreeks{
				Delta: c.Delta,
				Gamma: c.Gamma,
				Theta: c.Theta,
				Vega:  c.Vega,
			},
		})
	}

	return &chain, nil
}

func (r *marketDataRepository) sendRequest(ctx context.Context, url string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarketDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Warn("market data request failed",
			logger.StringField("url", url),
			logger.IntField("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrMarketDataUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarketDataUnavailable, err)
	}

	return body, nil
}
