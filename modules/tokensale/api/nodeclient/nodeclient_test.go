package nodeclient

import (
	"context"
	"net"
	"testing"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/api/httphandler"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/conductor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/payload"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/repository/memory"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaatest"
	"github.com/gaze-network/crosschain-sale/pkg/errorhandler"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGovernance = entity.RegisteredEmitter{Chain: common.ChainSolana, Address: address.Universal{31: 0x04}}

// startConductor serves a conductor API on a random local port.
func startConductor(t *testing.T, signers *vaatest.Signers) string {
	t.Helper()
	c := conductor.New(memory.NewRepository(), conductor.Options{
		ChainID:    common.ChainEthereum,
		Verifier:   signers.Verifier(),
		Governance: testGovernance,
	})
	app := fiber.New(fiber.Config{ErrorHandler: errorhandler.NewHTTPErrorHandler(), DisableStartupMessage: true})
	require.NoError(t, httphandler.NewConductorHandler(c, httphandler.SystemClock).Mount(app))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	signers := vaatest.DevnetSigners(4)
	client, err := New(startConductor(t, signers))
	require.NoError(t, err)

	info, err := client.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.RoleConductor, info.Role)
	assert.Equal(t, common.ChainEthereum, info.ChainID)
	assert.Equal(t, RouteContributions, DefaultRoute(info.Role))

	b, err := (&payload.RegisterChain{ChainID: common.ChainBSC, EmitterAddress: address.Universal{31: 0xee}}).Encode()
	require.NoError(t, err)
	envelope := signers.Emitter(testGovernance.Chain, testGovernance.Address).Emit(b)

	result, err := client.Submit(ctx, RouteGovernance, envelope)
	require.NoError(t, err)
	assert.Contains(t, string(result), `"chain":4`)

	t.Run("replay", func(t *testing.T) {
		_, err := client.Submit(ctx, RouteGovernance, envelope)
		assert.ErrorIs(t, err, errs.ReplayError)
	})

	t.Run("forged", func(t *testing.T) {
		forged := signers.Emitter(common.ChainEthereum, address.Universal{31: 0x66}).Emit(b)
		_, err := client.Submit(ctx, RouteGovernance, forged)
		assert.ErrorIs(t, err, errs.AuthenticityError)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := client.Submit(ctx, RouteGovernance, []byte{0x01})
		assert.ErrorIs(t, err, errs.FormatError)
	})
}

func TestParseRoute(t *testing.T) {
	route, err := ParseRoute("governance")
	require.NoError(t, err)
	assert.Equal(t, RouteGovernance, route)

	_, err = ParseRoute("claims")
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New("localhost")
	assert.Error(t, err)
}
