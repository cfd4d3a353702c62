package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"chainswap/pkg/chains"
	"chainswap/pkg/tokens"
)

var (
	usdcPolygon = tokens.Token{
		ChainID:  137,
		Address:  "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		Symbol:   "USDC",
		Decimals: 6,
	}
	ethPolygon = tokens.Token{
		ChainID:  137,
		Address:  chains.NativeTokenAddress,
		Symbol:   "ETH",
		Decimals: 18,
	}
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func baseParams() Params {
	return Params{
		ChainID:    137,
		SellToken:  usdcPolygon,
		BuyToken:   ethPolygon,
		SellAmount: "100",
		Slippage:   SlippageSetting{Mode: SlippageManual, ValueBps: 50},
	}
}

func newTestEngine(t *testing.T, handler http.HandlerFunc) (*Engine, *int64) {
	t.Helper()
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewEngine(srv.URL, testLogger()), &hits
}

func TestGetQuoteExclusiveAmountInvariant(t *testing.T) {
	engine, hits := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be issued")
	})

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"both amounts", func(p *Params) { p.BuyAmount = "1" }},
		{"neither amount", func(p *Params) { p.SellAmount = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := baseParams()
			tt.mutate(&params)

			q, err := engine.GetQuote(context.Background(), params)
			require.NoError(t, err)
			require.Nil(t, q)
			require.Zero(t, atomic.LoadInt64(hits))
		})
	}
}

func TestGetQuoteBaseUnitConversion(t *testing.T) {
	var gotQuery url.Values
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{
			"to": "0xDef1C0ded9bec7F1a1670819833240f027b25EfF",
			"data": "0xd9627aa4",
			"value": "0",
			"gasPrice": "30000000000",
			"sellAmount": "100000000",
			"buyAmount": "50000000000000000"
		}`)
	})

	q, err := engine.GetQuote(context.Background(), baseParams())
	require.NoError(t, err)
	require.NotNil(t, q)

	// 100 USDC at 6 decimals goes out as integer base units.
	require.Equal(t, "100000000", gotQuery.Get("sellAmount"))
	require.Equal(t, "0.005", gotQuery.Get("slippagePercentage"))
	require.Empty(t, gotQuery.Get("buyAmount"))

	// The returned buyAmount converts back using the buy token's 18 decimals.
	require.Equal(t, "0.05", q.BuyAmountDisplay)
	require.Equal(t, "100", q.SellAmountDisplay)
	require.Equal(t, "0xDef1C0ded9bec7F1a1670819833240f027b25EfF", q.TxTo)
	require.Equal(t, 50, q.SlippageBps)
}

func TestGetQuoteBuyAmountSide(t *testing.T) {
	var gotQuery url.Values
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{
			"to": "0xDef1C0ded9bec7F1a1670819833240f027b25EfF",
			"data": "0xd9627aa4",
			"sellAmount": "200000000",
			"buyAmount": "100000000000000000"
		}`)
	})

	params := baseParams()
	params.SellAmount = ""
	params.BuyAmount = "0.1"

	q, err := engine.GetQuote(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, q)
	require.Equal(t, "100000000000000000", gotQuery.Get("buyAmount"))
	require.Empty(t, gotQuery.Get("sellAmount"))
	require.Equal(t, "200", q.SellAmountDisplay)
}

func TestGetQuoteFeeAndTakerParams(t *testing.T) {
	var gotQuery url.Values
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"to":"0x1","data":"0x2","sellAmount":"1","buyAmount":"1"}`)
	})

	params := baseParams()
	params.TakerAddress = "0x1111111111111111111111111111111111111111"
	params.FeeRecipient = "0x2222222222222222222222222222222222222222"
	params.BuyTokenFeeBps = 30
	params.SkipValidation = true

	_, err := engine.GetQuote(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, params.TakerAddress, gotQuery.Get("takerAddress"))
	require.Equal(t, params.FeeRecipient, gotQuery.Get("feeRecipient"))
	require.Equal(t, "0.003", gotQuery.Get("buyTokenPercentageFee"))
	require.Equal(t, "true", gotQuery.Get("skipValidation"))
}

func TestGetQuoteInsufficientLiquidity(t *testing.T) {
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"validationErrors":[{"reason":"INSUFFICIENT_ASSET_LIQUIDITY"}]}`)
	})

	_, err := engine.GetQuote(context.Background(), baseParams())
	var liqErr *InsufficientLiquidityError
	require.True(t, errors.As(err, &liqErr))
	require.Equal(t, "INSUFFICIENT_ASSET_LIQUIDITY", liqErr.Reason)
}

func TestGetQuoteFetchErrorCarriesReasonVerbatim(t *testing.T) {
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"reason":"Gas estimation failed"}`)
	})

	_, err := engine.GetQuote(context.Background(), baseParams())
	var fetchErr *QuoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	require.Equal(t, "Gas estimation failed", fetchErr.Reason)
}

func TestGetQuoteFetchErrorUnparseableBody(t *testing.T) {
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream timeout")
	})

	_, err := engine.GetQuote(context.Background(), baseParams())
	var fetchErr *QuoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
}

func TestGetQuoteAutoSlippage(t *testing.T) {
	var slippages []string
	engine, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		slippages = append(slippages, r.URL.Query().Get("slippagePercentage"))
		fmt.Fprint(w, `{
			"to": "0x1", "data": "0x2",
			"sellAmount": "100000000", "buyAmount": "50000000000000000",
			"expectedSlippage": "0.02"
		}`)
	})

	params := baseParams()
	params.Slippage = SlippageSetting{Mode: SlippageAuto}

	// First request falls back to the conservative default.
	_, err := engine.GetQuote(context.Background(), params)
	require.NoError(t, err)
	// Second request adopts the aggregator's suggestion for the pair.
	_, err = engine.GetQuote(context.Background(), params)
	require.NoError(t, err)

	require.Equal(t, []string{"0.01", "0.02"}, slippages)
}
