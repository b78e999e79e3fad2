package flows

import (
	"context"
	"strconv"
)

// QuotaSnapshot describes how much of the free quota a device has used.
type QuotaSnapshot struct {
	Used      int
	Limit     int
	Unlocked  bool
	Remaining int
	Allowed   bool
}

// RunIncrementUsage adds one to the usage counter and returns the new value.
// No cap is applied here.
func RunIncrementUsage(ctx context.Context, keys Keys, deps GateDeps) (int, error) {
	n, err := readInt(ctx, deps.Store, keys.Usage)
	if err != nil {
		return 0, err
	}
	n++
	if err := deps.Store.Set(ctx, keys.Usage, strconv.FormatInt(n, 10)); err != nil {
		return 0, err
	}
	return int(n), nil
}

// RunCheckQuota evaluates the free-usage policy: unlocked devices are
// unlimited, everyone else may proceed while used < limit.
func RunCheckQuota(ctx context.Context, keys Keys, limit int, deps GateDeps) (QuotaSnapshot, error) {
	state, err := RunState(ctx, keys, deps)
	if err != nil {
		return QuotaSnapshot{}, err
	}

	q := QuotaSnapshot{
		Used:     state.UsageCount,
		Limit:    limit,
		Unlocked: state.Unlocked,
	}
	if q.Unlocked {
		q.Allowed = true
		return q, nil
	}
	if rem := limit - q.Used; rem > 0 {
		q.Remaining = rem
		q.Allowed = true
	}
	return q, nil
}
