package domain

import "context"

// Well-known transfer endpoints. User wallets are addressed by identity.
const (
	EscrowVault = "escrow"
)

// TokenMover is the authenticated transfer service that performs exclusive
// custody movement. The engine never touches raw custody: deposits move
// wallet -> escrow authorized by the user, withdrawals and fee sweeps move
// escrow -> wallet/treasury authorized by the escrow's delegated signing
// capability.
type TokenMover interface {
	Move(ctx context.Context, from, to string, amount uint64, authorizer string) error
}
