package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// CodeUserRejected is the EIP-1193 "user rejected request" code
const CodeUserRejected = 4001

// RejectedError is returned when the signer declines a request
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "user rejected the request"
	}
	return e.Message
}

// ErrorCode implements rpc.Error
func (e *RejectedError) ErrorCode() int {
	return CodeUserRejected
}

// ErrWrongNetwork is returned when the provider is on another chain
var ErrWrongNetwork = errors.New("wrong network")

// EnsureChain fails unless p reports chain want. Callers run it before any
// contract read or write.
func EnsureChain(ctx context.Context, p Provider, want *big.Int) error {
	id, err := p.ChainID(ctx)
	if err != nil {
		return &ChainQueryError{Op: "chain id", Err: err}
	}
	if id.Cmp(want) != 0 {
		return fmt.Errorf("%w: connected to chain %s, want %s", ErrWrongNetwork, id, want)
	}
	return nil
}

// ChainQueryError wraps any failed RPC read
type ChainQueryError struct {
	Op  string
	Err error
}

func (e *ChainQueryError) Error() string {
	return fmt.Sprintf("chain query %s: %v", e.Op, e.Err)
}

func (e *ChainQueryError) Unwrap() error {
	return e.Err
}

var rejectionPhrases = []string{
	"ACTION_REJECTED",
	"user rejected",
	"User denied",
	"rejected",
	"cancelled",
}

// IsUserRejection reports whether err is a signer-side cancellation: any
// error in the chain carrying code 4001, or a message with rejection wording.
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}

	if hasRejectionCode(err) {
		return true
	}

	msg := err.Error()
	for _, phrase := range rejectionPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// hasRejectionCode checks every error in the wrap tree, not only the first
// rpc.Error.
func hasRejectionCode(err error) bool {
	if err == nil {
		return false
	}
	if coded, ok := err.(rpc.Error); ok && coded.ErrorCode() == CodeUserRejected {
		return true
	}

	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return hasRejectionCode(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if hasRejectionCode(inner) {
				return true
			}
		}
	}
	return false
}
