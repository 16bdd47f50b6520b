package clock

import "time"

// 現在時刻の約束（テストでは固定時刻を渡す）
type Clock interface {
	Now() time.Time
}

// Real はUTCの現在時刻を返す
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Func は関数をClockとして使うためのアダプタ
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
