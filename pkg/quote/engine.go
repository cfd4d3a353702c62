package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"chainswap/pkg/tokens"
)

// SlippageMode selects between an aggregator-derived and a user-set
// slippage tolerance.
type SlippageMode string

const (
	SlippageAuto   SlippageMode = "auto"
	SlippageManual SlippageMode = "manual"
)

// DefaultAutoSlippageBps is used in auto mode when the aggregator has not
// yet suggested a value for the pair.
const DefaultAutoSlippageBps = 100

// SlippageSetting is the session-scoped slippage configuration.
type SlippageSetting struct {
	Mode     SlippageMode
	ValueBps int
}

// Params describes a quote request. Exactly one of SellAmount/BuyAmount must
// be set; both or neither means "quote not yet requested" and resolves to a
// nil quote without error.
type Params struct {
	ChainID        int64
	SellToken      tokens.Token
	BuyToken       tokens.Token
	SellAmount     string
	BuyAmount      string
	TakerAddress   string
	Slippage       SlippageSetting
	FeeRecipient   string
	BuyTokenFeeBps int
	SkipValidation bool
}

// Key identifies the input tuple for supersession and polling purposes.
func (p Params) Key() string {
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s|%d",
		p.ChainID,
		strings.ToLower(p.SellToken.Address),
		strings.ToLower(p.BuyToken.Address),
		p.SellAmount,
		p.BuyAmount,
		p.Slippage.Mode,
		p.Slippage.ValueBps,
	)
}

func (p Params) hasExactlyOneAmount() bool {
	return (p.SellAmount != "") != (p.BuyAmount != "")
}

// Quote is an aggregator-supplied price plus transaction payload. Quotes are
// immutable; a newer quote for the same pair supersedes, never patches.
type Quote struct {
	SellToken         tokens.Token
	BuyToken          tokens.Token
	SellAmount        *big.Int
	BuyAmount         *big.Int
	SellAmountDisplay string
	BuyAmountDisplay  string
	TxTo              string
	TxData            string
	TxValue           *big.Int
	GasPrice          *big.Int
	FeeRecipient      string
	SlippageBps       int
}

type quoteResponse struct {
	To               string `json:"to"`
	Data             string `json:"data"`
	Value            string `json:"value"`
	GasPrice         string `json:"gasPrice"`
	BuyAmount        string `json:"buyAmount"`
	SellAmount       string `json:"sellAmount"`
	ExpectedSlippage string `json:"expectedSlippage"`
}

type errorResponse struct {
	Reason           string `json:"reason"`
	ValidationErrors []struct {
		Reason string `json:"reason"`
	} `json:"validationErrors"`
}

// Engine fetches swap quotes from a price-aggregator HTTP endpoint and
// classifies its errors into the typed kinds callers branch on.
type Engine struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry

	mu        sync.Mutex
	suggested map[string]int // pair key -> aggregator-suggested slippage bps
}

// NewEngine creates an engine against the aggregator base URL.
func NewEngine(baseURL string, log *logrus.Logger) *Engine {
	return &Engine{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.WithField("component", "quote"),
		suggested:  make(map[string]int),
	}
}

// GetQuote fetches a fresh quote for the given params. A nil quote with a
// nil error means no quote was requested (amount invariant not met); no
// network request is issued in that case.
func (e *Engine) GetQuote(ctx context.Context, params Params) (*Quote, error) {
	if !params.hasExactlyOneAmount() {
		return nil, nil
	}

	query, slippageBps, err := e.buildQuery(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/quote?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach aggregator: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregator response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyError(resp.StatusCode, body)
	}

	var decoded quoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &QuoteFetchError{StatusCode: resp.StatusCode, Reason: "malformed aggregator response"}
	}

	q, err := e.toQuote(params, slippageBps, &decoded)
	if err != nil {
		return nil, err
	}

	e.rememberSuggestedSlippage(params, decoded.ExpectedSlippage)

	e.log.WithFields(logrus.Fields{
		"chainId": params.ChainID,
		"sell":    params.SellToken.Symbol,
		"buy":     params.BuyToken.Symbol,
	}).Debug("quote fetched")
	return q, nil
}

func (e *Engine) buildQuery(params Params) (url.Values, int, error) {
	query := url.Values{}
	query.Set("sellToken", params.SellToken.Address)
	query.Set("buyToken", params.BuyToken.Address)

	if params.SellAmount != "" {
		baseUnits, err := tokens.ToBaseUnits(params.SellAmount, params.SellToken.Decimals)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid sell amount: %w", err)
		}
		query.Set("sellAmount", baseUnits.String())
	} else {
		baseUnits, err := tokens.ToBaseUnits(params.BuyAmount, params.BuyToken.Decimals)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid buy amount: %w", err)
		}
		query.Set("buyAmount", baseUnits.String())
	}

	if params.TakerAddress != "" {
		query.Set("takerAddress", params.TakerAddress)
	}
	if params.SkipValidation {
		query.Set("skipValidation", "true")
	}
	if params.FeeRecipient != "" {
		query.Set("feeRecipient", params.FeeRecipient)
		if params.BuyTokenFeeBps > 0 {
			query.Set("buyTokenPercentageFee", formatBpsAsFraction(params.BuyTokenFeeBps))
		}
	}

	// Auto mode must resolve to a concrete value before the request is
	// built; "auto" is never sent to the remote API.
	slippageBps := e.resolveSlippageBps(params)
	query.Set("slippagePercentage", formatBpsAsFraction(slippageBps))

	return query, slippageBps, nil
}

func (e *Engine) resolveSlippageBps(params Params) int {
	if params.Slippage.Mode == SlippageManual {
		return params.Slippage.ValueBps
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if bps, ok := e.suggested[pairKey(params)]; ok {
		return bps
	}
	return DefaultAutoSlippageBps
}

func (e *Engine) rememberSuggestedSlippage(params Params, expected string) {
	if expected == "" {
		return
	}
	frac, err := strconv.ParseFloat(expected, 64)
	if err != nil || frac <= 0 {
		return
	}
	e.mu.Lock()
	e.suggested[pairKey(params)] = int(frac * 10000)
	e.mu.Unlock()
}

func pairKey(params Params) string {
	return fmt.Sprintf("%d|%s|%s",
		params.ChainID,
		strings.ToLower(params.SellToken.Address),
		strings.ToLower(params.BuyToken.Address))
}

func (e *Engine) toQuote(params Params, slippageBps int, resp *quoteResponse) (*Quote, error) {
	if resp.To == "" || resp.Data == "" {
		return nil, &QuoteFetchError{StatusCode: http.StatusOK, Reason: "aggregator response missing transaction fields"}
	}

	sellAmount, ok := parseBigInt(resp.SellAmount)
	if !ok {
		return nil, &QuoteFetchError{StatusCode: http.StatusOK, Reason: "aggregator response missing sellAmount"}
	}
	buyAmount, ok := parseBigInt(resp.BuyAmount)
	if !ok {
		return nil, &QuoteFetchError{StatusCode: http.StatusOK, Reason: "aggregator response missing buyAmount"}
	}

	value := big.NewInt(0)
	if resp.Value != "" {
		if value, ok = parseBigInt(resp.Value); !ok {
			return nil, &QuoteFetchError{StatusCode: http.StatusOK, Reason: "aggregator response has malformed value"}
		}
	}

	var gasPrice *big.Int
	if resp.GasPrice != "" {
		if gasPrice, ok = parseBigInt(resp.GasPrice); !ok {
			return nil, &QuoteFetchError{StatusCode: http.StatusOK, Reason: "aggregator response has malformed gasPrice"}
		}
	}

	return &Quote{
		SellToken:         params.SellToken,
		BuyToken:          params.BuyToken,
		SellAmount:        sellAmount,
		BuyAmount:         buyAmount,
		SellAmountDisplay: tokens.FromBaseUnits(sellAmount, params.SellToken.Decimals),
		BuyAmountDisplay:  tokens.FromBaseUnits(buyAmount, params.BuyToken.Decimals),
		TxTo:              resp.To,
		TxData:            resp.Data,
		TxValue:           value,
		GasPrice:          gasPrice,
		FeeRecipient:      params.FeeRecipient,
		SlippageBps:       slippageBps,
	}, nil
}

func parseBigInt(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

// formatBpsAsFraction renders basis points as the fractional percentage
// string the aggregator expects, e.g. 50 -> "0.005".
func formatBpsAsFraction(bps int) string {
	return strconv.FormatFloat(float64(bps)/10000, 'f', -1, 64)
}

// classifyError maps aggregator error bodies onto the typed error kinds.
// The structured reason is surfaced verbatim.
func classifyError(statusCode int, body []byte) error {
	var decoded errorResponse
	_ = json.Unmarshal(body, &decoded)

	reasons := make([]string, 0, 1+len(decoded.ValidationErrors))
	if decoded.Reason != "" {
		reasons = append(reasons, decoded.Reason)
	}
	for _, v := range decoded.ValidationErrors {
		if v.Reason != "" {
			reasons = append(reasons, v.Reason)
		}
	}

	for _, reason := range reasons {
		// Aggregators spell this both as prose and as an enum constant.
		normalized := strings.ReplaceAll(strings.ToLower(reason), "_", " ")
		if strings.Contains(normalized, "insufficient asset liquidity") {
			return &InsufficientLiquidityError{Reason: reason}
		}
	}

	reason := ""
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}
	return &QuoteFetchError{StatusCode: statusCode, Reason: reason}
}
