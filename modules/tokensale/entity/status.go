package entity

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/crosschain-sale/common/errs"
)

type SaleStatus uint8

const (
	SaleStatusUnknown SaleStatus = iota
	SaleStatusActive
	SaleStatusSealed
	SaleStatusAborted
)

var saleStatusNames = map[SaleStatus]string{
	SaleStatusActive:  "active",
	SaleStatusSealed:  "sealed",
	SaleStatusAborted: "aborted",
}

func (s SaleStatus) String() string {
	if name, ok := saleStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s SaleStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SaleStatus) UnmarshalText(text []byte) error {
	status, err := ParseSaleStatus(string(text))
	if err != nil {
		return errors.WithStack(err)
	}
	*s = status
	return nil
}

func ParseSaleStatus(s string) (SaleStatus, error) {
	for status, name := range saleStatusNames {
		if name == s {
			return status, nil
		}
	}
	return SaleStatusUnknown, errors.Wrapf(errs.InvalidArgument, "unknown sale status %q", s)
}

// IsTerminal reports whether no further transition is possible.
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusSealed || s == SaleStatusAborted
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// Only Active -> Sealed and Active -> Aborted are permitted.
func (s SaleStatus) CanTransition(next SaleStatus) bool {
	return s == SaleStatusActive && next.IsTerminal()
}
