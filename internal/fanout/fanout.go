// Package fanout implements staggered multi-address name queries: the same
// query sent to a list of candidate addresses with an increasing delay per
// index, the first successful reply winning and cancelling the rest.
package fanout

import (
	"context"
	"net"
	"time"

	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/nbquery"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/transaction"
)

// Result is one address's NameQuery outcome tagged with the index (into
// the addrs slice given to NameQueries) that produced it, so a caller can
// correlate a winning reply back to the server it came from.
type Result struct {
	nbquery.NameQueryResult
	Index int
}

type subqueryOutcome struct {
	res Result
	err error
}

// NameQueries sends the same 0x20 query to every address in addrs: address
// 0 immediately, address 1 after waitStep, address 2 after 2*waitStep, and
// so on, each bounded by perAttemptTimeout. The first subquery to succeed
// completes the whole operation and cancels every other in-flight
// subquery; the operation only fails once every subquery has failed, and
// the error returned is the last one observed.
func NameQueries(
	ctx context.Context,
	engine *transaction.Engine,
	name netbios.Name,
	broadcast, recurse bool,
	addrs []net.Addr,
	waitStep, perAttemptTimeout time.Duration,
) (Result, error) {
	if len(addrs) == 0 {
		return Result{}, nberrors.New(nberrors.InvalidParameter, "fanout.NameQueries")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan subqueryOutcome, len(addrs))
	for i, addr := range addrs {
		go runSubquery(ctx, engine, name, broadcast, recurse, addr, i, waitStep, perAttemptTimeout, resultCh)
	}

	var lastErr error
	for range addrs {
		o := <-resultCh
		if o.err == nil {
			cancel()
			return o.res, nil
		}
		lastErr = o.err
	}
	return Result{}, lastErr
}

func runSubquery(
	ctx context.Context,
	engine *transaction.Engine,
	name netbios.Name,
	broadcast, recurse bool,
	addr net.Addr,
	index int,
	waitStep, perAttemptTimeout time.Duration,
	resultCh chan<- subqueryOutcome,
) {
	if index > 0 {
		select {
		case <-time.After(time.Duration(index) * waitStep):
		case <-ctx.Done():
			resultCh <- subqueryOutcome{err: nberrors.Wrap(nberrors.Timeout, "fanout.NameQueries", ctx.Err())}
			return
		}
	}

	attemptCtx, attemptCancel := context.WithTimeout(ctx, perAttemptTimeout)
	defer attemptCancel()

	res, err := nbquery.NameQuery(attemptCtx, engine, addr, name, nbquery.NameQueryOptions{
		Broadcast:        broadcast,
		RecursionDesired: recurse,
		Deadline:         perAttemptTimeout,
	})
	resultCh <- subqueryOutcome{res: Result{NameQueryResult: res, Index: index}, err: err}
}
