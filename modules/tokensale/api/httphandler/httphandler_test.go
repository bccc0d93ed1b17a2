package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/conductor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/contributor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/custody"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/internal/authz"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/repository/memory"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaatest"
	"github.com/gaze-network/crosschain-sale/pkg/crypto"
	"github.com/gaze-network/crosschain-sale/pkg/errorhandler"
	"github.com/gofiber/fiber/v2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testNow       uint64 = 1_000
	testSaleStart uint64 = 2_000
	testSaleEnd   uint64 = 3_000
	testUnlock    uint64 = 4_000
)

var (
	testGovernance = entity.RegisteredEmitter{Chain: common.ChainSolana, Address: address.Universal{31: 0x04}}
	testOutbox     = entity.RegisteredEmitter{Chain: common.ChainEthereum, Address: address.Universal{31: 0xc0}}
	testEmitter    = address.Universal{30: 0xee, 31: byte(common.ChainEthereum)}
	testBuyer      = "0x00000000000000000000000000000000000000a1"
	testToken      = "0x0000000000000000000000000000000000000010"
	initiatorKey   = crypto.NewFromKey(vaatest.Key("initiator"))
)

func abortBody(t *testing.T, signer *crypto.Client, saleID entity.SaleID) map[string]any {
	t.Helper()
	signature, err := signer.Sign(authz.AbortDigest(saleID))
	require.NoError(t, err)
	return map[string]any{"signature": encodeHex(signature)}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type fixture struct {
	t       *testing.T
	now     uint64
	app     *fiber.App
	signers *vaatest.Signers
}

func newApp(t *testing.T, handler *HttpHandler) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: errorhandler.NewHTTPErrorHandler()})
	require.NoError(t, handler.Mount(app))
	return app
}

func (f *fixture) clock() uint64 {
	return f.now
}

func (f *fixture) do(method, path string, body any) (int, []byte) {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := f.app.Test(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)
	return resp.StatusCode, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func registerChainEnvelope(t *testing.T, governance *vaatest.Emitter, chain common.ChainID, emitter address.Universal) []byte {
	t.Helper()
	b, err := (&payload.RegisterChain{ChainID: chain, EmitterAddress: emitter}).Encode()
	require.NoError(t, err)
	return governance.Emit(b)
}

func newConductorFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, now: testNow, signers: vaatest.DevnetSigners(4)}
	c := conductor.New(memory.NewRepository(), conductor.Options{
		ChainID:    common.ChainEthereum,
		Verifier:   f.signers.Verifier(),
		Governance: testGovernance,
	})
	f.app = newApp(t, NewConductorHandler(c, f.clock))
	return f
}

func createSaleBody() map[string]any {
	return map[string]any{
		"token":           map[string]any{"chain": common.ChainEthereum, "address": "0x0000000000000000000000000000000000000001", "decimals": 18},
		"tokenAmount":     "1000",
		"minRaise":        "100",
		"maxRaise":        "200",
		"saleStart":       testSaleStart,
		"saleEnd":         testSaleEnd,
		"unlockTimestamp": testUnlock,
		"acceptedTokens": []map[string]any{
			{"chain": common.ChainEthereum, "address": testToken, "conversionRate": "1"},
		},
		"recipient":       "0x0000000000000000000000000000000000000030",
		"refundRecipient": "0x0000000000000000000000000000000000000031",
		"initiator":       entity.Authority(initiatorKey.Address()).String(),
	}
}

func TestGetInfo(t *testing.T) {
	f := newConductorFixture(t)
	status, body := f.do(http.MethodGet, "/tokensale/v1/info", nil)
	require.Equal(t, http.StatusOK, status)

	resp := decode[getInfoResponse](t, body)
	require.NotNil(t, resp.Result)
	assert.Equal(t, common.RoleConductor, resp.Result.Role)
	assert.Equal(t, common.ChainEthereum, resp.Result.ChainID)
	assert.Equal(t, 4, resp.Result.Guardians)
	assert.Equal(t, f.signers.Verifier().Threshold(), resp.Result.Quorum)
}

func TestConductorSaleLifecycle(t *testing.T) {
	f := newConductorFixture(t)
	governance := f.signers.Emitter(testGovernance.Chain, testGovernance.Address)

	t.Run("unregistered_chain", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/tokensale/v1/sales", createSaleBody())
		assert.NotEqual(t, http.StatusOK, status)
	})

	envelope := encodeHex(registerChainEnvelope(t, governance, common.ChainEthereum, testEmitter))
	status, body := f.do(http.MethodPost, "/tokensale/v1/governance", map[string]any{"envelope": envelope})
	require.Equal(t, http.StatusOK, status, string(body))
	emitter := decode[submitGovernanceResponse](t, body)
	require.NotNil(t, emitter.Result)
	assert.Equal(t, common.ChainEthereum, emitter.Result.Chain)

	t.Run("governance_replay", func(t *testing.T) {
		status, body := f.do(http.MethodPost, "/tokensale/v1/governance", map[string]any{"envelope": envelope})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(errs.ReplayError), decode[errorBody](t, body).Code)
	})

	status, body = f.do(http.MethodGet, "/tokensale/v1/emitters", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, *decode[getRegisteredEmittersResponse](t, body).Result, 1)

	status, body = f.do(http.MethodPost, "/tokensale/v1/sales", createSaleBody())
	require.Equal(t, http.StatusOK, status, string(body))
	created := decode[createSaleResponse](t, body)
	require.NotNil(t, created.Result)
	assert.NotEmpty(t, created.Result.SaleInit)
	assert.Empty(t, created.Result.SolanaSaleInit)
	require.Len(t, created.Result.Sale.AcceptedTokens, 1)
	saleID := created.Result.Sale.ID.String()

	status, body = f.do(http.MethodGet, "/tokensale/v1/sales/"+saleID, nil)
	require.Equal(t, http.StatusOK, status)
	sale := decode[getConductorSaleResponse](t, body)
	require.NotNil(t, sale.Result)
	assert.Equal(t, entity.SaleStatusActive, sale.Result.Status)
	assert.Equal(t, []int{0}, sale.Result.Missing)

	status, body = f.do(http.MethodGet, "/tokensale/v1/sales", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, *decode[getConductorSalesResponse](t, body).Result, 1)

	t.Run("seal_before_end", func(t *testing.T) {
		status, body := f.do(http.MethodPost, "/tokensale/v1/sales/"+saleID+"/seal", nil)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(errs.StateError), decode[errorBody](t, body).Code)
	})

	t.Run("abort_unsigned", func(t *testing.T) {
		status, body := f.do(http.MethodPost, "/tokensale/v1/sales/"+saleID+"/abort", map[string]any{
			"sender": entity.Authority(initiatorKey.Address()).String(),
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, string(errs.AuthenticityError), decode[errorBody](t, body).Code)
	})

	t.Run("abort_by_stranger", func(t *testing.T) {
		stranger := crypto.NewFromKey(vaatest.Key("stranger"))
		status, body := f.do(http.MethodPost, "/tokensale/v1/sales/"+saleID+"/abort", abortBody(t, stranger, created.Result.Sale.ID))
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(errs.StateError), decode[errorBody](t, body).Code)
	})

	status, body = f.do(http.MethodPost, "/tokensale/v1/sales/"+saleID+"/abort", abortBody(t, initiatorKey, created.Result.Sale.ID))
	require.Equal(t, http.StatusOK, status, string(body))
	aborted := decode[sealResponse](t, body)
	require.NotNil(t, aborted.Result)
	assert.Equal(t, entity.SaleStatusAborted, aborted.Result.Status)
	assert.NotEmpty(t, aborted.Result.Payload)
}

func TestCreateSaleValidation(t *testing.T) {
	f := newConductorFixture(t)
	req := createSaleBody()
	req["recipient"] = "not-an-address"
	req["tokenAmount"] = "-1"

	status, body := f.do(http.MethodPost, "/tokensale/v1/sales", req)
	assert.Equal(t, http.StatusBadRequest, status)
	resp := decode[errorBody](t, body)
	assert.Contains(t, resp.Error, "validation error")
	assert.Contains(t, resp.Error, "recipient")
	assert.Contains(t, resp.Error, "tokenAmount")
}

func TestGetSaleErrors(t *testing.T) {
	f := newConductorFixture(t)
	testCases := []struct {
		path   string
		status int
	}{
		{path: "/tokensale/v1/sales/7", status: http.StatusNotFound},
		{path: "/tokensale/v1/sales/0xzz", status: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			status, _ := f.do(http.MethodGet, tc.path, nil)
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestSubmitEnvelopeValidation(t *testing.T) {
	f := newConductorFixture(t)
	testCases := []struct {
		name     string
		envelope string
		status   int
	}{
		{name: "missing", envelope: "", status: http.StatusBadRequest},
		{name: "not_hex", envelope: "0xnope", status: http.StatusBadRequest},
		{name: "truncated", envelope: "0x01", status: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := f.do(http.MethodPost, "/tokensale/v1/governance", map[string]any{"envelope": tc.envelope})
			assert.Equal(t, tc.status, status)
		})
	}
}

// contributorFixture runs an Ethereum contributor next to the conductor that announces its sales.
type contributorFixture struct {
	*fixture
	ledger   *custody.Ledger
	saleID   entity.SaleID
	saleInit []byte
}

func newContributorFixture(t *testing.T) *contributorFixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{t: t, now: testNow, signers: vaatest.DevnetSigners(4)}
	ledger := custody.NewLedger()
	c := contributor.New(memory.NewRepository(), ledger, contributor.Options{
		ChainID:   common.ChainEthereum,
		Verifier:  f.signers.Verifier(),
		Conductor: testOutbox,
	})
	f.app = newApp(t, NewContributorHandler(c, f.clock))

	cond := conductor.New(memory.NewRepository(), conductor.Options{
		ChainID:    common.ChainEthereum,
		Verifier:   f.signers.Verifier(),
		Governance: testGovernance,
	})
	governance := f.signers.Emitter(testGovernance.Chain, testGovernance.Address)
	_, err := cond.RegisterChain(ctx, registerChainEnvelope(t, governance, common.ChainEthereum, testEmitter))
	require.NoError(t, err)

	req := createSaleRequest{}
	b, err := json.Marshal(createSaleBody())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &req))
	params, err := req.params(common.ChainEthereum)
	require.NoError(t, err)
	result, err := cond.CreateSale(ctx, params, testNow)
	require.NoError(t, err)

	return &contributorFixture{
		fixture:  f,
		ledger:   ledger,
		saleID:   result.Terms.ID,
		saleInit: f.signers.Emitter(testOutbox.Chain, testOutbox.Address).Emit(result.SaleInit),
	}
}

func TestContributorFlow(t *testing.T) {
	f := newContributorFixture(t)
	salePath := "/tokensale/v1/sales/" + f.saleID.String()

	status, _ := f.do(http.MethodGet, salePath, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, body := f.do(http.MethodPost, "/tokensale/v1/envelopes", map[string]any{"envelope": encodeHex(f.saleInit)})
	require.Equal(t, http.StatusOK, status, string(body))
	submitted := decode[submitEnvelopeResponse](t, body)
	require.NotNil(t, submitted.Result)
	assert.Equal(t, payload.IDSaleInit.String(), submitted.Result.Payload)
	assert.Equal(t, entity.SaleStatusActive, submitted.Result.Sale.Status)

	buyer, err := address.Parse(common.ChainEthereum, testBuyer)
	require.NoError(t, err)
	token, err := address.Parse(common.ChainEthereum, testToken)
	require.NoError(t, err)
	f.ledger.Mint(token, buyer, uint256.NewInt(500))

	contribute := map[string]any{"tokenIndex": 0, "buyer": testBuyer, "amount": "150"}

	t.Run("before_start", func(t *testing.T) {
		status, body := f.do(http.MethodPost, salePath+"/contributions", contribute)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, string(errs.StateError), decode[errorBody](t, body).Code)
	})

	f.now = testSaleStart
	status, body = f.do(http.MethodPost, salePath+"/contributions", contribute)
	require.Equal(t, http.StatusOK, status, string(body))
	contribution := decode[getContributionResponse](t, body)
	require.NotNil(t, contribution.Result)
	assert.Equal(t, "150", contribution.Result.Amount)
	assert.Equal(t, uint64(350), f.ledger.Balance(token, buyer).Uint64())

	t.Run("unknown_token_index", func(t *testing.T) {
		status, body := f.do(http.MethodPost, salePath+"/contributions", map[string]any{"tokenIndex": 9, "buyer": testBuyer, "amount": "1"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, string(errs.CapacityError), decode[errorBody](t, body).Code)
	})

	status, body = f.do(http.MethodGet, salePath+"/contributions/0/"+testBuyer, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "150", decode[getContributionResponse](t, body).Result.Amount)

	status, body = f.do(http.MethodGet, salePath+"/contributions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, *decode[getContributionsResponse](t, body).Result, 1)

	t.Run("attest_before_end", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, salePath+"/attest", nil)
		assert.Equal(t, http.StatusConflict, status)
	})

	f.now = testSaleEnd + 1
	status, body = f.do(http.MethodPost, salePath+"/attest", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	attested := decode[payloadResponse](t, body)
	require.NotNil(t, attested.Result)
	assert.NotEmpty(t, attested.Result.Payload)

	t.Run("invalid_claim_kind", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, salePath+"/claims/bonus", map[string]any{"tokenIndex": 0, "buyer": testBuyer})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("claim_before_finalization", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, salePath+"/claims/refund", map[string]any{"tokenIndex": 0, "buyer": testBuyer})
		assert.Equal(t, http.StatusConflict, status)
	})
}
