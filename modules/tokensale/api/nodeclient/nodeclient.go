// Package nodeclient talks to the HTTP API of a token sale node.
package nodeclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common"
	"github.com/gaze-network/crosschain-sale/common/errs"
	"github.com/gaze-network/crosschain-sale/pkg/httpclient"
)

const basePath = "/tokensale/v1"

// Route is the endpoint an attested envelope is delivered to.
type Route string

const (
	// RouteEnvelopes takes conductor messages on a contributor node.
	RouteEnvelopes Route = "envelopes"
	// RouteGovernance takes chain registrations on the conductor node.
	RouteGovernance Route = "governance"
	// RouteContributions takes contribution attestations on the conductor node.
	RouteContributions Route = "contributions"
)

func ParseRoute(s string) (Route, error) {
	switch r := Route(s); r {
	case RouteEnvelopes, RouteGovernance, RouteContributions:
		return r, nil
	}
	return "", errors.Wrapf(errs.InvalidArgument, "unknown route %q", s)
}

// DefaultRoute is the route that accepts envelopes on a node of role.
func DefaultRoute(role common.Role) Route {
	if role == common.RoleConductor {
		return RouteContributions
	}
	return RouteEnvelopes
}

type Info struct {
	Role             common.Role    `json:"role"`
	ChainID          common.ChainID `json:"chainId"`
	Chain            string         `json:"chain"`
	GuardianSetIndex uint32         `json:"guardianSetIndex"`
	Guardians        int            `json:"guardians"`
	Quorum           int            `json:"quorum"`
}

type response[T any] struct {
	Error  *string `json:"error"`
	Code   string  `json:"code"`
	Result *T      `json:"result"`
}

var classes = []errs.ErrorKind{
	errs.FormatError,
	errs.AuthenticityError,
	errs.ReplayError,
	errs.StateError,
	errs.CapacityError,
}

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, config ...httpclient.Config) (*Client, error) {
	client, err := httpclient.New(baseURL, config...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Client{http: client}, nil
}

func (c *Client) Info(ctx context.Context) (*Info, error) {
	resp, err := c.http.Get(ctx, basePath+"/info", httpclient.RequestOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "can't get node info")
	}
	return decode[Info](resp)
}

// Submit delivers an attested envelope and returns the raw result of the node.
// A rejection by the node is returned with its rejection class, so an
// already applied envelope satisfies errors.Is(err, errs.ReplayError).
func (c *Client) Submit(ctx context.Context, route Route, envelope []byte) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]string{"envelope": "0x" + hex.EncodeToString(envelope)})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	resp, err := c.http.Post(ctx, basePath+"/"+string(route), httpclient.RequestOptions{Body: body})
	if err != nil {
		return nil, errors.Wrap(err, "can't submit envelope")
	}
	result, err := decode[json.RawMessage](resp)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return *result, nil
}

func decode[T any](resp *httpclient.HttpResponse) (*T, error) {
	var body response[T]
	if err := resp.UnmarshalBody(&body); err != nil {
		return nil, errors.WithStack(err)
	}
	if status := resp.StatusCode(); status != http.StatusOK {
		message := http.StatusText(status)
		if body.Error != nil {
			message = *body.Error
		}
		return nil, errors.Wrapf(kindOf(status, body.Code), "node responded %d: %s", status, message)
	}
	if body.Result == nil {
		return nil, errors.Errorf("empty result from %s", resp.URL)
	}
	return body.Result, nil
}

func kindOf(status int, code string) errs.ErrorKind {
	for _, class := range classes {
		if string(class) == code {
			return class
		}
	}
	switch status {
	case http.StatusNotFound:
		return errs.NotFound
	case http.StatusBadRequest:
		return errs.InvalidArgument
	case http.StatusNotImplemented:
		return errs.Unsupported
	}
	return errs.SomethingWentWrong
}
