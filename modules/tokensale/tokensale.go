package tokensale

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/internal/config"
	"github.com/gaze-network/crosschain-sale/internal/postgres"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/address"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/api/httphandler"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/conductor"
	tokensaleconfig "github.com/gaze-network/crosschain-sale/modules/tokensale/config"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/contributor"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/custody"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/entity"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/repository/memory"
	tokensalepostgres "github.com/gaze-network/crosschain-sale/modules/tokensale/repository/postgres"
	"github.com/gaze-network/crosschain-sale/modules/tokensale/vaa"
	"github.com/gaze-network/crosschain-sale/pkg/logger"
	"github.com/gaze-network/crosschain-sale/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
	"github.com/holiman/uint256"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

const Version = "v0.1.0"

// Node is a sale node running one role on one chain.
type Node struct {
	role         common.Role
	Conductor    *conductor.Conductor
	Contributor  *contributor.Contributor
	cleanupFuncs []func(context.Context) error
}

func (n *Node) Role() common.Role {
	return n.role
}

// HTTPHandler returns the API of the node.
func (n *Node) HTTPHandler() *httphandler.HttpHandler {
	if n.Conductor != nil {
		return httphandler.NewConductorHandler(n.Conductor, httphandler.SystemClock)
	}
	return httphandler.NewContributorHandler(n.Contributor, httphandler.SystemClock)
}

// Shutdown releases the resources of the node. Called by the injector on shutdown.
func (n *Node) Shutdown(ctx context.Context) error {
	var errList []error
	for _, cleanup := range n.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}

func New(injector do.Injector) (*Node, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector).Modules.TokenSale

	node, err := NewNode(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	ctx = logger.WithContext(ctx, slogx.Stringer("role", node.role), slogx.Stringer("chain", conf.ChainID))

	// Mount API
	apiHandlers := lo.Uniq(conf.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			if err := node.HTTPHandler().Mount(httpServer); err != nil {
				return nil, errors.Wrap(err, "can't mount token sale API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	logger.InfoContext(ctx, "Token sale node started",
		slogx.Uint32("guardian_set", conf.GuardianSet.Index),
		slogx.Int("guardians", len(conf.GuardianSet.Keys)),
	)
	return node, nil
}

// NewNode builds the state store and the state machine of the configured role.
func NewNode(ctx context.Context, conf tokensaleconfig.Config) (*Node, error) {
	role := common.ParseRole(conf.Role)
	if !role.IsSupported() {
		return nil, errors.Wrapf(errs.Unsupported, "%q role is not supported", conf.Role)
	}
	if !conf.ChainID.IsKnown() {
		return nil, errors.Wrapf(errs.Unsupported, "chain id %d is not supported", conf.ChainID)
	}
	verifier, err := newVerifier(conf)
	if err != nil {
		return nil, errors.Wrap(err, "invalid guardian set configuration")
	}

	var custodian custody.Custody
	if role == common.RoleContributor {
		custodian, err = newCustody(conf)
		if err != nil {
			return nil, errors.Wrap(err, "invalid custody configuration")
		}
	}

	node := &Node{role: role}
	var (
		conductorDg   datagateway.ConductorDataGateway
		contributorDg datagateway.ContributorDataGateway
	)
	switch strings.ToLower(conf.Database) {
	case "", "memory":
		repo := memory.NewRepository()
		conductorDg, contributorDg = repo, repo
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, conf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for token sale")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		node.cleanupFuncs = append(node.cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		repo := tokensalepostgres.NewRepository(pg, role)
		conductorDg, contributorDg = repo, repo
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for token sale is not supported", conf.Database)
	}

	switch role {
	case common.RoleConductor:
		governance, err := parseEmitter(conf.Governance)
		if err != nil {
			return nil, errors.Wrap(err, "invalid governance emitter")
		}
		policy, err := conductor.ParseRemainderPolicy(conf.RemainderPolicy)
		if err != nil {
			return nil, errors.Wrap(err, "invalid remainder policy")
		}
		node.Conductor = conductor.New(conductorDg, conductor.Options{
			ChainID:         conf.ChainID,
			Verifier:        verifier,
			Governance:      governance,
			RemainderPolicy: policy,
		})
	case common.RoleContributor:
		emitter, err := parseEmitter(conf.Conductor)
		if err != nil {
			return nil, errors.Wrap(err, "invalid conductor emitter")
		}
		node.Contributor = contributor.New(contributorDg, custodian, contributor.Options{
			ChainID:   conf.ChainID,
			Verifier:  verifier,
			Conductor: emitter,
		})
	}
	return node, nil
}

func newVerifier(conf tokensaleconfig.Config) (vaa.Verifier, error) {
	if len(conf.GuardianSet.Keys) == 0 {
		return vaa.Verifier{}, errors.Wrap(errs.InvalidArgument, "guardian set is empty")
	}
	set, err := vaa.ParseGuardianSet(conf.GuardianSet.Index, conf.GuardianSet.Keys)
	if err != nil {
		return vaa.Verifier{}, errors.WithStack(err)
	}
	if conf.Quorum < 0 || conf.Quorum > len(set.Keys) {
		return vaa.Verifier{}, errors.Wrapf(errs.InvalidArgument, "quorum %d is out of range of %d guardians", conf.Quorum, len(set.Keys))
	}
	return vaa.Verifier{Set: set, Quorum: conf.Quorum}, nil
}

func newCustody(conf tokensaleconfig.Config) (custody.Custody, error) {
	switch strings.ToLower(conf.Custody.Type) {
	case "", "ledger":
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q custody is not supported", conf.Custody.Type)
	}
	// Contribution records would outlive the escrow they account for.
	if db := strings.ToLower(conf.Database); db != "" && db != "memory" {
		return nil, errors.Wrapf(errs.InvalidArgument, "ledger custody is volatile and can't back a %q database", conf.Database)
	}

	ledger := custody.NewLedger()
	for _, balance := range conf.Custody.Balances {
		token, err := address.Parse(conf.ChainID, balance.Token)
		if err != nil {
			return nil, errors.Wrapf(err, "balance token %q", balance.Token)
		}
		account, err := address.Parse(conf.ChainID, balance.Account)
		if err != nil {
			return nil, errors.Wrapf(err, "balance account %q", balance.Account)
		}
		amount, err := parseAmount(balance.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "balance of %q", balance.Account)
		}
		ledger.Mint(token, account, amount)
	}
	for _, escrow := range conf.Custody.Escrow {
		token, err := address.Parse(conf.ChainID, escrow.Token)
		if err != nil {
			return nil, errors.Wrapf(err, "escrow token %q", escrow.Token)
		}
		amount, err := parseAmount(escrow.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "escrow of %q", escrow.Token)
		}
		ledger.Fund(token, amount)
	}
	return ledger, nil
}

func parseAmount(s string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(errs.InvalidArgument, "amount %q: %v", s, err)
	}
	return amount, nil
}

func parseEmitter(conf tokensaleconfig.Emitter) (entity.RegisteredEmitter, error) {
	addr, err := address.Parse(conf.ChainID, conf.Address)
	if err != nil {
		return entity.RegisteredEmitter{}, errors.WithStack(err)
	}
	if addr.IsZero() {
		return entity.RegisteredEmitter{}, errors.Wrap(errs.InvalidArgument, "emitter address is required")
	}
	return entity.RegisteredEmitter{Chain: conf.ChainID, Address: addr}, nil
}
