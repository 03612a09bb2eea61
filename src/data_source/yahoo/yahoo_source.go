package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/interfaces"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
	"stock-dashboard/src/network"
)

const quoteModules = "summaryDetail,defaultKeyStatistics"

type YahooQuoteSource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
	crumb   string
	crumbMu sync.Mutex
}

// -----------------------------------------------------------------------------

func (s *YahooQuoteSource) Name() string {
	return "yahoo"
}

// -----------------------------------------------------------------------------

func NewYahooQuoteSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *YahooQuoteSource {
	return &YahooQuoteSource{
		Config:  cfg,
		Network: netMgr,
		Logger:  logger.NewLogger("YahooQuoteSource"),
	}
}

// -----------------------------------------------------------------------------

// FetchQuote calls quoteSummary for symbol. A 401 invalidates the cached
// crumb and the request is repeated once with a fresh one.
func (s *YahooQuoteSource) FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error) {
	body, err := s.fetchSummary(ctx, symbol, false)

	var se *network.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
		s.Logger.Info("Crumb rejected for %s, refreshing session", symbol)
		body, err = s.fetchSummary(ctx, symbol, true)
	}

	if err != nil {
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, helpers.NewProviderDataMissing(symbol, fmt.Errorf("no quote for symbol: %w", err))
		}
		return nil, helpers.NewProviderUnavailable(symbol, err)
	}

	return parseQuoteSummary(symbol, body)
}

// -----------------------------------------------------------------------------

func (s *YahooQuoteSource) fetchSummary(ctx context.Context, symbol string, refresh bool) ([]byte, error) {
	crumb, err := s.getCrumb(ctx, refresh)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s", strings.TrimRight(s.Config.Provider.BaseURL, "/"), url.PathEscape(symbol))
	params := map[string]string{
		"modules": quoteModules,
		"crumb":   crumb,
	}

	return s.Network.Get(ctx, endpoint, params, nil)
}

// -----------------------------------------------------------------------------

// getCrumb returns the cached crumb, or starts a session (cookie + crumb)
// when none is cached or refresh is set.
func (s *YahooQuoteSource) getCrumb(ctx context.Context, refresh bool) (string, error) {
	s.crumbMu.Lock()
	defer s.crumbMu.Unlock()

	if s.crumb != "" && !refresh {
		return s.crumb, nil
	}

	// The cookie endpoint answers 404 but still sets the session cookie.
	if s.Config.Provider.CookieURL != "" {
		if _, err := s.Network.Get(ctx, s.Config.Provider.CookieURL, nil, nil); err != nil {
			var se *network.StatusError
			if !errors.As(err, &se) {
				return "", fmt.Errorf("session cookie request failed: %w", err)
			}
		}
	}

	body, err := s.Network.Get(ctx, strings.TrimRight(s.Config.Provider.BaseURL, "/")+"/v1/test/getcrumb", nil, nil)
	if err != nil {
		return "", fmt.Errorf("crumb request failed: %w", err)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", fmt.Errorf("invalid crumb response")
	}

	s.crumb = crumb
	s.Logger.Debug("Obtained new crumb")
	return crumb, nil
}

// -----------------------------------------------------------------------------

// yahooValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper. An empty object
// means the value is not reported.
type yahooValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type QuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail *struct {
				PreviousClose        yahooValue `json:"previousClose"`
				FiftyDayAverage      yahooValue `json:"fiftyDayAverage"`
				TwoHundredDayAverage yahooValue `json:"twoHundredDayAverage"`
				ForwardPE            yahooValue `json:"forwardPE"`
				DividendYield        yahooValue `json:"dividendYield"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics *struct {
				ForwardPE  yahooValue `json:"forwardPE"`
				ForwardEps yahooValue `json:"forwardEps"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// -----------------------------------------------------------------------------

func parseQuoteSummary(symbol string, data []byte) (*models.MQuote, error) {
	var resp QuoteSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, helpers.NewProviderDataMissing(symbol, fmt.Errorf("json unmarshal failed: %w", err))
	}

	if e := resp.QuoteSummary.Error; e != nil {
		return nil, helpers.NewProviderUnavailable(symbol, fmt.Errorf("yahoo api error: %s - %s", e.Code, e.Description))
	}

	if len(resp.QuoteSummary.Result) == 0 {
		return nil, helpers.NewProviderDataMissing(symbol, fmt.Errorf("no result in response"))
	}

	result := resp.QuoteSummary.Result[0]
	if result.SummaryDetail == nil {
		return nil, helpers.NewProviderDataMissing(symbol, fmt.Errorf("summaryDetail module missing"))
	}

	sd := result.SummaryDetail
	var stats struct{ forwardPE, forwardEps yahooValue }
	if ks := result.DefaultKeyStatistics; ks != nil {
		stats.forwardPE, stats.forwardEps = ks.ForwardPE, ks.ForwardEps
	}

	forwardPE := sd.ForwardPE
	if forwardPE.Raw == nil {
		forwardPE = stats.forwardPE
	}

	required := []struct {
		name  string
		value yahooValue
	}{
		{"previousClose", sd.PreviousClose},
		{"fiftyDayAverage", sd.FiftyDayAverage},
		{"twoHundredDayAverage", sd.TwoHundredDayAverage},
		{"forwardPE", forwardPE},
		{"forwardEps", stats.forwardEps},
	}

	var missing []string
	for _, r := range required {
		if r.value.Raw == nil || math.IsNaN(*r.value.Raw) || math.IsInf(*r.value.Raw, 0) {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return nil, helpers.NewProviderDataMissing(symbol, fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")))
	}

	quote := &models.MQuote{
		Symbol:               symbol,
		PreviousClose:        *sd.PreviousClose.Raw,
		FiftyDayAverage:      *sd.FiftyDayAverage.Raw,
		TwoHundredDayAverage: *sd.TwoHundredDayAverage.Raw,
		ForwardPE:            *forwardPE.Raw,
		ForwardEPS:           *stats.forwardEps.Raw,
	}
	if dy := sd.DividendYield.Raw; dy != nil && !math.IsNaN(*dy) && !math.IsInf(*dy, 0) {
		v := *dy
		quote.DividendYield = &v
	}

	return quote, nil
}
