package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/conductor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/pkg/decimals"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getConductorSalesResponse = HttpResponse[[]conductorSaleView]

func (h *HttpHandler) GetConductorSales(ctx *fiber.Ctx) error {
	sales, err := h.conductor.Sales(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during Sales")
	}
	return errors.WithStack(ctx.JSON(getConductorSalesResponse{
		Result: lo.ToPtr(lo.Map(sales, func(sale entity.ConductorSale, _ int) conductorSaleView {
			return newConductorSaleView(sale)
		})),
	}))
}

type getConductorSaleResponse = HttpResponse[conductorSaleView]

func (h *HttpHandler) GetConductorSale(ctx *fiber.Ctx) error {
	var req saleIDRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	sale, err := h.conductor.Sale(ctx.UserContext(), saleID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.WithPublicMessage(errors.WithStack(errs.NotFound), "sale")
		}
		return errors.Wrap(err, "error during Sale")
	}
	return errors.WithStack(ctx.JSON(getConductorSaleResponse{Result: lo.ToPtr(newConductorSaleView(*sale))}))
}

type getRegisteredEmittersResponse = HttpResponse[[]emitterView]

func (h *HttpHandler) GetRegisteredEmitters(ctx *fiber.Ctx) error {
	emitters, err := h.conductor.RegisteredEmitters(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during RegisteredEmitters")
	}
	return errors.WithStack(ctx.JSON(getRegisteredEmittersResponse{
		Result: lo.ToPtr(lo.Map(emitters, func(e entity.RegisteredEmitter, _ int) emitterView { return newEmitterView(e) })),
	}))
}

type acceptedTokenRequest struct {
	Chain          common.ChainID `json:"chain"`
	Address        string         `json:"address"`
	ConversionRate string         `json:"conversionRate"` // decimal, "1" means 1:1
}

type createSaleRequest struct {
	Token struct {
		Chain    common.ChainID `json:"chain"`
		Address  string         `json:"address"`
		Decimals uint8          `json:"decimals"`
	} `json:"token"`
	TokenAmount     string                 `json:"tokenAmount"`
	MinRaise        string                 `json:"minRaise"`
	MaxRaise        string                 `json:"maxRaise"`
	SaleStart       uint64                 `json:"saleStart"`
	SaleEnd         uint64                 `json:"saleEnd"`
	UnlockTimestamp uint64                 `json:"unlockTimestamp"`
	AcceptedTokens  []acceptedTokenRequest `json:"acceptedTokens"`
	Recipient       string                 `json:"recipient"`
	RefundRecipient string                 `json:"refundRecipient"`
	Authority       string                 `json:"authority"`
	Initiator       string                 `json:"initiator"`
}

// params converts the request. Addresses may be native or universal. The recipients and
// the initiator are addresses on the conductor chain.
func (r *createSaleRequest) params(conductorChain common.ChainID) (conductor.CreateSaleParams, error) {
	var (
		params  conductor.CreateSaleParams
		errList []error
		err     error
	)
	collect := func(err error) {
		if err != nil {
			errList = append(errList, err)
		}
	}

	params.Token = entity.TokenDescriptor{Chain: r.Token.Chain, Decimals: r.Token.Decimals}
	params.Token.Address, err = address.Parse(r.Token.Chain, r.Token.Address)
	collect(errors.Wrap(err, "token.address"))
	params.TokenAmount, err = parseAmount("tokenAmount", r.TokenAmount)
	collect(err)
	params.MinRaise, err = parseAmount("minRaise", r.MinRaise)
	collect(err)
	params.MaxRaise, err = parseAmount("maxRaise", r.MaxRaise)
	collect(err)
	params.SaleStart, params.SaleEnd, params.UnlockTimestamp = r.SaleStart, r.SaleEnd, r.UnlockTimestamp

	for i, token := range r.AcceptedTokens {
		accepted := conductor.AcceptedTokenParams{Chain: token.Chain}
		accepted.Address, err = address.Parse(token.Chain, token.Address)
		collect(errors.Wrapf(err, "acceptedTokens[%d].address", i))
		accepted.ConversionRate, err = decimals.ToRate(token.ConversionRate)
		collect(errors.Wrapf(err, "acceptedTokens[%d].conversionRate", i))
		params.AcceptedTokens = append(params.AcceptedTokens, accepted)
	}

	params.Recipient, err = address.Parse(conductorChain, r.Recipient)
	collect(errors.Wrap(err, "recipient"))
	params.RefundRecipient, err = address.Parse(conductorChain, r.RefundRecipient)
	collect(errors.Wrap(err, "refundRecipient"))
	params.Initiator, err = address.Parse(conductorChain, r.Initiator)
	collect(errors.Wrap(err, "initiator"))
	params.Authority, err = parseAuthority(r.Authority)
	collect(err)

	return params, errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type createSaleResult struct {
	Sale           termsView `json:"sale"`
	SaleInit       string    `json:"saleInit"`
	SolanaSaleInit string    `json:"solanaSaleInit,omitempty"`
}

type createSaleResponse = HttpResponse[createSaleResult]

func (h *HttpHandler) CreateSale(ctx *fiber.Ctx) error {
	var req createSaleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	params, err := req.params(h.conductor.ChainID())
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.conductor.CreateSale(ctx.UserContext(), params, h.clock())
	if err != nil {
		return errors.Wrap(err, "error during CreateSale")
	}
	return errors.WithStack(ctx.JSON(createSaleResponse{
		Result: &createSaleResult{
			Sale:           newTermsView(result.Terms),
			SaleInit:       encodeHex(result.SaleInit),
			SolanaSaleInit: encodeHex(result.SolanaSaleInit),
		},
	}))
}

type sealResult struct {
	Status      entity.SaleStatus `json:"status"`
	Raised      string            `json:"raised"`
	Allocations []allocationView  `json:"allocations,omitempty"`
	Payload     string            `json:"payload"`
}

type sealResponse = HttpResponse[sealResult]

func newSealResponse(result *conductor.SealResult) sealResponse {
	return sealResponse{
		Result: &sealResult{
			Status:      result.Status,
			Raised:      lo.FromPtr(amountPtr(result.Raised)),
			Allocations: newAllocationViews(result.Allocations),
			Payload:     encodeHex(result.Payload),
		},
	}
}

func (h *HttpHandler) SealSale(ctx *fiber.Ctx) error {
	var req saleIDRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.conductor.SealSale(ctx.UserContext(), saleID, h.clock())
	if err != nil {
		return errors.Wrap(err, "error during SealSale")
	}
	return errors.WithStack(ctx.JSON(newSealResponse(result)))
}

type abortSaleRequest struct {
	SaleID    string `params:"saleId" json:"-"`
	// Signature is the initiator's or the authority's signature over the abort digest.
	Signature string `json:"signature"`
}

func (h *HttpHandler) AbortSale(ctx *fiber.Ctx) error {
	var req abortSaleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	signature, err := decodeHex("signature", req.Signature)
	if err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	result, err := h.conductor.AbortSaleBeforeStart(ctx.UserContext(), saleID, signature, h.clock())
	if err != nil {
		return errors.Wrap(err, "error during AbortSaleBeforeStart")
	}
	return errors.WithStack(ctx.JSON(newSealResponse(result)))
}

type updateSaleAuthorityRequest struct {
	SaleID       string `params:"saleId" json:"-"`
	NewAuthority string `json:"newAuthority"`
	Signature    string `json:"signature"`
}

type payloadResult struct {
	Payload string `json:"payload"`
}

type payloadResponse = HttpResponse[payloadResult]

func (h *HttpHandler) UpdateSaleAuthority(ctx *fiber.Ctx) error {
	var req updateSaleAuthorityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	newAuthority, err := parseAuthority(req.NewAuthority)
	if err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	signature, err := decodeHex("signature", req.Signature)
	if err != nil {
		return errs.WithPublicMessage(err, "validation error")
	}
	encoded, err := h.conductor.UpdateSaleAuthority(ctx.UserContext(), saleID, newAuthority, signature)
	if err != nil {
		return errors.Wrap(err, "error during UpdateSaleAuthority")
	}
	return errors.WithStack(ctx.JSON(payloadResponse{Result: &payloadResult{Payload: encodeHex(encoded)}}))
}

type submitGovernanceResponse = HttpResponse[emitterView]

func (h *HttpHandler) SubmitGovernance(ctx *fiber.Ctx) error {
	var req envelopeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	raw, err := req.Validate()
	if err != nil {
		return errors.WithStack(err)
	}
	emitter, err := h.conductor.RegisterChain(ctx.UserContext(), raw)
	if err != nil {
		return errors.Wrap(err, "error during RegisterChain")
	}
	return errors.WithStack(ctx.JSON(submitGovernanceResponse{Result: lo.ToPtr(newEmitterView(*emitter))}))
}

func (h *HttpHandler) SubmitContributions(ctx *fiber.Ctx) error {
	var req envelopeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	raw, err := req.Validate()
	if err != nil {
		return errors.WithStack(err)
	}
	sale, err := h.conductor.CollectContribution(ctx.UserContext(), raw, h.clock())
	if err != nil {
		return errors.Wrap(err, "error during CollectContribution")
	}
	return errors.WithStack(ctx.JSON(getConductorSaleResponse{Result: lo.ToPtr(newConductorSaleView(*sale))}))
}
