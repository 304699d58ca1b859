package ledger

import "context"

// Gateway is the Balance Gateway: it scopes ledger calls to this system's
// service account and fixed network fee. The balance check and the charge are
// two separate round trips because the ledger has no combined check-and-charge
// primitive; callers who need the pair to be atomic from this system's point
// of view must hold the per-caller settlement lock across both.
type Gateway struct {
	client         Client
	serviceAccount string
	fee            uint64
}

// NewGateway creates a gateway charging into serviceAccount with the given
// network fee.
func NewGateway(client Client, serviceAccount string, fee uint64) *Gateway {
	return &Gateway{
		client:         client,
		serviceAccount: serviceAccount,
		fee:            fee,
	}
}

// CheckBalance returns user's spendable balance.
func (g *Gateway) CheckBalance(ctx context.Context, user string) (uint64, error) {
	return g.client.BalanceOf(ctx, user)
}

// Charge pulls amount plus the network fee from user into the service
// account. The ledger must already hold an allowance from user to the service
// account. Not idempotent: never call twice for the same memo expecting the
// first outcome.
func (g *Gateway) Charge(ctx context.Context, user string, amount uint64, memo string) (uint64, error) {
	return g.client.TransferFrom(ctx, user, g.serviceAccount, amount, g.fee, memo)
}

// ServiceAccount returns the account charges land in, which is also the swap
// recipient.
func (g *Gateway) ServiceAccount() string {
	return g.serviceAccount
}
