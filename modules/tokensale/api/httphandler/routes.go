package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/tokensale/v1")

	r.Get("/info", h.GetInfo)
	if h.conductor != nil {
		r.Get("/emitters", h.GetRegisteredEmitters)
		r.Get("/sales", h.GetConductorSales)
		r.Post("/sales", h.CreateSale)
		r.Get("/sales/:saleId", h.GetConductorSale)
		r.Post("/sales/:saleId/seal", h.SealSale)
		r.Post("/sales/:saleId/abort", h.AbortSale)
		r.Post("/sales/:saleId/authority", h.UpdateSaleAuthority)
		r.Post("/governance", h.SubmitGovernance)
		r.Post("/contributions", h.SubmitContributions)
		return nil
	}
	r.Get("/sales", h.GetContributorSales)
	r.Get("/sales/:saleId", h.GetContributorSale)
	r.Get("/sales/:saleId/contributions", h.GetContributions)
	r.Get("/sales/:saleId/contributions/:tokenIndex/:buyer", h.GetContribution)
	r.Post("/sales/:saleId/contributions", h.Contribute)
	r.Post("/sales/:saleId/attest", h.AttestContributions)
	r.Post("/sales/:saleId/claims/:kind", h.Claim)
	r.Post("/envelopes", h.SubmitEnvelope)
	return nil
}
