package datagateway

import (
	"context"

	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
)

// MessageDataGateway stores the consumed message set of one contract instance.
type MessageDataGateway interface {
	IsMessageConsumed(ctx context.Context, digest [32]byte) (bool, error)
	// AddConsumedMessage records digest as applied. Adding a digest twice is an error.
	AddConsumedMessage(ctx context.Context, digest [32]byte) error
}

type ConductorDataGateway interface {
	ConductorReaderDataGateway
	ConductorWriterDataGateway
	MessageDataGateway

	BeginConductorTx(ctx context.Context) (ConductorDataGatewayWithTx, error)
}

type ConductorDataGatewayWithTx interface {
	ConductorDataGateway
	Tx
}

type ConductorReaderDataGateway interface {
	// GetRegisteredEmitter returns errs.NotFound if the chain has no registered contributor.
	GetRegisteredEmitter(ctx context.Context, chain common.ChainID) (*entity.RegisteredEmitter, error)
	GetRegisteredEmitters(ctx context.Context) ([]entity.RegisteredEmitter, error)
	// GetConductorSale returns errs.NotFound if the sale does not exist.
	GetConductorSale(ctx context.Context, saleID entity.SaleID) (*entity.ConductorSale, error)
	GetConductorSales(ctx context.Context) ([]entity.ConductorSale, error)
}

type ConductorWriterDataGateway interface {
	SetRegisteredEmitter(ctx context.Context, emitter entity.RegisteredEmitter) error
	// NextSaleCounter increments and returns the sale counter, starting at 1.
	NextSaleCounter(ctx context.Context) (uint64, error)
	CreateConductorSale(ctx context.Context, sale entity.ConductorSale) error
	// UpdateConductorSale replaces the mutable state of a sale: status, authority, token states and allocations.
	UpdateConductorSale(ctx context.Context, sale entity.ConductorSale) error
}

type ContributorDataGateway interface {
	ContributorReaderDataGateway
	ContributorWriterDataGateway
	MessageDataGateway

	BeginContributorTx(ctx context.Context) (ContributorDataGatewayWithTx, error)
}

type ContributorDataGatewayWithTx interface {
	ContributorDataGateway
	Tx
}

type ContributorReaderDataGateway interface {
	// GetContributorSale returns errs.NotFound if the sale was never initialized.
	GetContributorSale(ctx context.Context, saleID entity.SaleID) (*entity.ContributorSale, error)
	GetContributorSales(ctx context.Context) ([]entity.ContributorSale, error)
	// GetContribution returns errs.NotFound if the buyer never contributed the token.
	GetContribution(ctx context.Context, saleID entity.SaleID, tokenIndex uint8, buyer address.Universal) (*entity.Contribution, error)
	GetContributions(ctx context.Context, saleID entity.SaleID) ([]entity.Contribution, error)
}

type ContributorWriterDataGateway interface {
	CreateContributorSale(ctx context.Context, sale entity.ContributorSale) error
	// UpdateContributorSale replaces the mutable state of a sale: status, authority and token states.
	UpdateContributorSale(ctx context.Context, sale entity.ContributorSale) error
	// SetContribution inserts or replaces the contribution record of (sale, token index, buyer).
	SetContribution(ctx context.Context, contribution entity.Contribution) error
}
