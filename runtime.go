// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trireel

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/reel"
	"github.com/zintix-labs/trireel/settings"
)

var (
	ErrSessionNotFound = errs.NewWarn("session not found")
	ErrSpinning        = errs.NewWarn("session is spinning")
	ErrRuntimeClosed   = errs.NewFatal("runtime closed")
)

const (
	DefaultSessionCap = 1024
	DefaultSessionTTL = 30 * time.Minute
)

// SessionGauge 接收 Session 的建立與移除（metrics 使用）。
type SessionGauge interface {
	SessionOpened()
	SessionClosed()
}

// RuntimeOptions 是 Runtime 的設定。
//
// Fields:
//   - Cap: 同時保留的 Session 上限，超過時淘汰最久未使用的
//   - TTL: Session 閒置多久後過期
//   - Observer: 所有 Session 的結果接收者
//   - Gauge: Session 數量
//   - Instant: true 時 Spin 不等待表現時間，立即 Finish
//   - Log: 日誌
type RuntimeOptions struct {
	Cap      int
	TTL      time.Duration
	Observer reel.Observer
	Gauge    SessionGauge
	Instant  bool
	Log      *slog.Logger
}

// Runtime 管理對外服務時的多個玩家 Session。
//
// 每個 Session 以 uuid 識別，放在有期限的 LRU 內。Spin 之後 Session 維持
// Spinning 直到時間軸的 Done，由計時器自動 Finish；期間再次 Spin 會得到 ErrSpinning。
type Runtime struct {
	lab   *Lab
	cache *expirable.LRU[string, *reel.Session]
	opt   RuntimeOptions
	log   *slog.Logger

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// BuildRuntime 進入執行階段並建立 Runtime。
func (l *Lab) BuildRuntime(opt RuntimeOptions) (*Runtime, error) {
	l.Freeze()
	if len(l.cat.IDs()) == 0 {
		return nil, errs.NewFatal("no themes registered")
	}
	if opt.Cap <= 0 {
		opt.Cap = DefaultSessionCap
	}
	if opt.TTL <= 0 {
		opt.TTL = DefaultSessionTTL
	}
	if opt.Log == nil {
		opt.Log = slog.Default()
	}
	rt := &Runtime{
		lab:  l,
		opt:  opt,
		log:  opt.Log,
		done: make(chan struct{}),
	}
	rt.reason.Store("")
	rt.cache = expirable.NewLRU[string, *reel.Session](opt.Cap, rt.onEvict, opt.TTL)
	return rt, nil
}

func (rt *Runtime) onEvict(id string, _ *reel.Session) {
	if rt.opt.Gauge != nil {
		rt.opt.Gauge.SessionClosed()
	}
	rt.log.Debug("session evicted", "session", id)
}

func (rt *Runtime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "request canceled")
	case <-rt.done:
		return ErrRuntimeClosed
	default:
		return nil
	}
}

// Open 以主題名稱建立新的 Session；seed 為 0 時隨機產生。
func (rt *Runtime) Open(ctx context.Context, theme string, seed int64) (string, *reel.Session, error) {
	if err := rt.check(ctx); err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	sess, err := rt.lab.NewSessionByName(theme, reel.Options{
		Seed:     seed,
		Store:    settings.NewMemStore(nil),
		Observer: rt.opt.Observer,
		Log:      rt.log.With("session", id),
	})
	if err != nil {
		return "", nil, err
	}
	rt.cache.Add(id, sess)
	if rt.opt.Gauge != nil {
		rt.opt.Gauge.SessionOpened()
	}
	rt.log.Info("session opened", "session", id, "theme", theme)
	return id, sess, nil
}

// Get 取出 Session 並刷新其期限。
func (rt *Runtime) Get(ctx context.Context, id string) (*reel.Session, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	sess, ok := rt.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Spin 開始一局並排程在 plan.Done 時 Finish。
func (rt *Runtime) Spin(ctx context.Context, id string) (*reel.Plan, error) {
	sess, err := rt.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, ok := sess.Spin()
	if !ok {
		return nil, ErrSpinning
	}
	if rt.opt.Instant {
		sess.Finish(plan.Seq)
	} else {
		time.AfterFunc(plan.Done, func() { sess.Finish(plan.Seq) })
	}
	return plan, nil
}

// Drop 移除 Session。
func (rt *Runtime) Drop(id string) bool { return rt.cache.Remove(id) }

// Len 回傳目前的 Session 數。
func (rt *Runtime) Len() int { return rt.cache.Len() }

func (rt *Runtime) Lab() *Lab { return rt.lab }

// Close 進入關閉狀態並清空 Session；可重複呼叫。
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		rt.cache.Purge()
	})
}

func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Run 阻塞直到 Runtime 被關閉，讓 Runtime 可以交給 app 管理生命週期。
func (rt *Runtime) Run() error {
	<-rt.done
	return nil
}

// Shutdown 關閉 Runtime。
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.closeWithReason("shutdown")
	return ctx.Err()
}
