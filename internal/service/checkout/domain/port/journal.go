package port

import "context"

// AttemptEntry 是一次提交 / 支付发起的留痕记录，用于客服排障。
type AttemptEntry struct {
	SessionID  string
	OrderID    string
	Stage      string // order_submission / payment_initiation / reconciliation
	Outcome    string // success / failure
	StatusCode int
	Detail     string
}

// AttemptJournal 把留痕写入持久存储。写入失败只记日志，不影响主流程。
type AttemptJournal interface {
	Record(ctx context.Context, entry AttemptEntry) error
}
