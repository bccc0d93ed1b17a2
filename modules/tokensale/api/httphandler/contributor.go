package httphandler

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/contributor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

type getContributorSalesResponse = HttpResponse[[]contributorSaleView]

func (h *HttpHandler) GetContributorSales(ctx *fiber.Ctx) error {
	sales, err := h.contributor.Sales(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during Sales")
	}
	return errors.WithStack(ctx.JSON(getContributorSalesResponse{
		Result: lo.ToPtr(lo.Map(sales, func(sale entity.ContributorSale, _ int) contributorSaleView {
			return newContributorSaleView(sale)
		})),
	}))
}

type getContributorSaleResponse = HttpResponse[contributorSaleView]

func (h *HttpHandler) GetContributorSale(ctx *fiber.Ctx) error {
	var req saleIDRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	sale, err := h.contributor.Sale(ctx.UserContext(), saleID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.WithPublicMessage(errors.WithStack(errs.NotFound), "sale")
		}
		return errors.Wrap(err, "error during Sale")
	}
	return errors.WithStack(ctx.JSON(getContributorSaleResponse{Result: lo.ToPtr(newContributorSaleView(*sale))}))
}

type getContributionsResponse = HttpResponse[[]contributionView]

func (h *HttpHandler) GetContributions(ctx *fiber.Ctx) error {
	var req saleIDRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	contributions, err := h.contributor.Contributions(ctx.UserContext(), saleID)
	if err != nil {
		return errors.Wrap(err, "error during Contributions")
	}
	return errors.WithStack(ctx.JSON(getContributionsResponse{
		Result: lo.ToPtr(lo.Map(contributions, func(c entity.Contribution, _ int) contributionView {
			return newContributionView(c)
		})),
	}))
}

type contributionRequest struct {
	SaleID     string `params:"saleId" json:"-"`
	TokenIndex uint8  `params:"tokenIndex"`
	Buyer      string `params:"buyer"`
}

type getContributionResponse = HttpResponse[contributionView]

func (h *HttpHandler) GetContribution(ctx *fiber.Ctx) error {
	var req contributionRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	buyer, err := address.Parse(h.contributor.ChainID(), req.Buyer)
	if err != nil {
		return errs.WithPublicMessage(errors.Wrap(err, "buyer"), "validation error")
	}
	contribution, err := h.contributor.Contribution(ctx.UserContext(), saleID, req.TokenIndex, buyer)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.WithPublicMessage(errors.WithStack(errs.NotFound), "contribution")
		}
		return errors.Wrap(err, "error during Contribution")
	}
	return errors.WithStack(ctx.JSON(getContributionResponse{Result: lo.ToPtr(newContributionView(*contribution))}))
}

type contributeRequest struct {
	SaleID     string `params:"saleId" json:"-"`
	TokenIndex uint8  `json:"tokenIndex"`
	Buyer      string `json:"buyer"`
	Amount     string `json:"amount"`
	Signature  string `json:"signature"` // required when the sale has an authority
}

func (r *contributeRequest) params(h *HttpHandler) (contributor.ContributeParams, error) {
	var errList []error
	params := contributor.ContributeParams{TokenIndex: r.TokenIndex}

	saleID, err := parseSaleID(r.SaleID)
	if err != nil {
		return params, errors.WithStack(err)
	}
	params.SaleID = saleID
	if params.Buyer, err = address.Parse(h.contributor.ChainID(), r.Buyer); err != nil {
		errList = append(errList, errors.Wrap(err, "buyer"))
	}
	if params.Amount, err = parseAmount("amount", r.Amount); err != nil {
		errList = append(errList, err)
	}
	if r.Signature != "" {
		if params.Signature, err = decodeHex("signature", r.Signature); err != nil {
			errList = append(errList, err)
		}
	}
	return params, errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

func (h *HttpHandler) Contribute(ctx *fiber.Ctx) error {
	var req contributeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	params, err := req.params(h)
	if err != nil {
		return errors.WithStack(err)
	}
	contribution, err := h.contributor.Contribute(ctx.UserContext(), params, h.clock())
	if err != nil {
		return errors.Wrap(err, "error during Contribute")
	}
	return errors.WithStack(ctx.JSON(getContributionResponse{Result: lo.ToPtr(newContributionView(*contribution))}))
}

func (h *HttpHandler) AttestContributions(ctx *fiber.Ctx) error {
	var req saleIDRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	encoded, err := h.contributor.AttestContributions(ctx.UserContext(), saleID, h.clock())
	if err != nil {
		return errors.Wrap(err, "error during AttestContributions")
	}
	return errors.WithStack(ctx.JSON(payloadResponse{Result: &payloadResult{Payload: encodeHex(encoded)}}))
}

type claimFunc func(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal, now uint64) (*uint256.Int, error)

func (h *HttpHandler) claimFunc(kind string) (claimFunc, bool) {
	switch strings.ToLower(kind) {
	case "allocation":
		return h.contributor.ClaimAllocation, true
	case "excess":
		return h.contributor.ClaimExcessContribution, true
	case "refund":
		return h.contributor.ClaimRefund, true
	}
	return nil, false
}

type claimRequest struct {
	SaleID     string `params:"saleId" json:"-"`
	Kind       string `params:"kind" json:"-"`
	TokenIndex uint8  `json:"tokenIndex"`
	Buyer      string `json:"buyer"`
}

type claimResult struct {
	Kind       string            `json:"kind"`
	TokenIndex uint8             `json:"tokenIndex"`
	Buyer      address.Universal `json:"buyer"`
	Amount     string            `json:"amount"`
}

type claimResponse = HttpResponse[claimResult]

func (h *HttpHandler) Claim(ctx *fiber.Ctx) error {
	var req claimRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	claim, ok := h.claimFunc(req.Kind)
	if !ok {
		return errs.NewPublicError("claim kind must be one of allocation, excess or refund")
	}
	saleID, err := parseSaleID(req.SaleID)
	if err != nil {
		return errors.WithStack(err)
	}
	buyer, err := address.Parse(h.contributor.ChainID(), req.Buyer)
	if err != nil {
		return errs.WithPublicMessage(errors.Wrap(err, "buyer"), "validation error")
	}
	amount, err := claim(ctx.UserContext(), saleID, req.TokenIndex, buyer, h.clock())
	if err != nil {
		return errors.Wrapf(err, "error during %s claim", req.Kind)
	}
	return errors.WithStack(ctx.JSON(claimResponse{
		Result: &claimResult{
			Kind:       strings.ToLower(req.Kind),
			TokenIndex: req.TokenIndex,
			Buyer:      buyer,
			Amount:     amount.Dec(),
		},
	}))
}

type submitEnvelopeResult struct {
	Payload string              `json:"payload"`
	Sale    contributorSaleView `json:"sale"`
}

type submitEnvelopeResponse = HttpResponse[submitEnvelopeResult]

func (h *HttpHandler) SubmitEnvelope(ctx *fiber.Ctx) error {
	var req envelopeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	raw, err := req.Validate()
	if err != nil {
		return errors.WithStack(err)
	}
	result, err := h.contributor.Submit(ctx.UserContext(), raw, h.clock())
	if err != nil {
		return errors.Wrap(err, "error during Submit")
	}
	return errors.WithStack(ctx.JSON(submitEnvelopeResponse{
		Result: &submitEnvelopeResult{
			Payload: result.PayloadID.String(),
			Sale:    newContributorSaleView(*result.Sale),
		},
	}))
}
