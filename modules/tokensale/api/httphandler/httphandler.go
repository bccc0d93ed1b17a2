package httphandler

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/conductor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/contributor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaa"
	"github.com/holiman/uint256"
)

// Clock returns the current unix time in seconds.
type Clock func() uint64

func SystemClock() uint64 {
	return uint64(time.Now().Unix())
}

// HttpHandler serves the API of one node. Exactly one of conductor and contributor is set.
type HttpHandler struct {
	conductor   *conductor.Conductor
	contributor *contributor.Contributor
	clock       Clock
}

func NewConductorHandler(c *conductor.Conductor, clock Clock) *HttpHandler {
	return &HttpHandler{conductor: c, clock: clock}
}

func NewContributorHandler(c *contributor.Contributor, clock Clock) *HttpHandler {
	return &HttpHandler{contributor: c, clock: clock}
}

func (h *HttpHandler) Role() common.Role {
	if h.conductor != nil {
		return common.RoleConductor
	}
	return common.RoleContributor
}

func (h *HttpHandler) chainID() common.ChainID {
	if h.conductor != nil {
		return h.conductor.ChainID()
	}
	return h.contributor.ChainID()
}

func (h *HttpHandler) verifier() vaa.Verifier {
	if h.conductor != nil {
		return h.conductor.Verifier()
	}
	return h.contributor.Verifier()
}

type HttpResponse[T any] struct {
	Error  *string `json:"error"`
	Result *T      `json:"result,omitempty"`
}

func decodeHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errors.Wrapf(errs.InvalidArgument, "%s is not valid hex", field)
	}
	return b, nil
}

func encodeHex(b []byte) string {
	if b == nil {
		return ""
	}
	return "0x" + hex.EncodeToString(b)
}

func parseAmount(field, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(errs.InvalidArgument, "%s must be a decimal integer in base units", field)
	}
	return v, nil
}

func parseAuthority(s string) (entity.Authority, error) {
	var authority entity.Authority
	if s == "" {
		return authority, nil
	}
	b, err := decodeHex("authority", s)
	if err != nil {
		return authority, errors.WithStack(err)
	}
	if len(b) != len(authority) {
		return authority, errors.Wrapf(errs.InvalidArgument, "authority must be %d bytes", len(authority))
	}
	copy(authority[:], b)
	return authority, nil
}

type saleIDRequest struct {
	SaleID string `params:"saleId" json:"-"`
}

func parseSaleID(s string) (entity.SaleID, error) {
	id, err := entity.ParseSaleID(s)
	if err != nil {
		return id, errs.WithPublicMessage(err, "validation error")
	}
	return id, nil
}

type envelopeRequest struct {
	Envelope string `json:"envelope"`
}

func (r *envelopeRequest) Validate() ([]byte, error) {
	if r.Envelope == "" {
		return nil, errs.WithPublicMessage(errors.Wrap(errs.InvalidArgument, "envelope is required"), "validation error")
	}
	raw, err := decodeHex("envelope", r.Envelope)
	if err != nil {
		return nil, errs.WithPublicMessage(err, "validation error")
	}
	return raw, nil
}
