package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gofiber/fiber/v2"
)

type getInfoResult struct {
	Role             common.Role    `json:"role"`
	ChainID          common.ChainID `json:"chainId"`
	Chain            string         `json:"chain"`
	GuardianSetIndex uint32         `json:"guardianSetIndex"`
	Guardians        int            `json:"guardians"`
	Quorum           int            `json:"quorum"`
}

type getInfoResponse = HttpResponse[getInfoResult]

func (h *HttpHandler) GetInfo(ctx *fiber.Ctx) error {
	verifier := h.verifier()
	return errors.WithStack(ctx.JSON(getInfoResponse{
		Result: &getInfoResult{
			Role:             h.Role(),
			ChainID:          h.chainID(),
			Chain:            h.chainID().String(),
			GuardianSetIndex: verifier.Set.Index,
			Guardians:        len(verifier.Set.Keys),
			Quorum:           verifier.Threshold(),
		},
	}))
}
