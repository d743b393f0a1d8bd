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

// Package reel 實作三轉輪的旋轉流程。
//
// Session 是一個玩家的遊戲狀態：符號目錄、賠率模型、必中旗標、音效開關、
// 旋轉狀態與亂數核心都屬於它，所有變更都經過同一把鎖。
//
// 一局的生命週期：
//
//	plan, ok := s.Spin()   // Idle -> Spinning，抽出三個符號並組出時間軸
//	...                    // 表現層依 plan.Effects 播放
//	s.Finish(plan.Seq)     // Spinning -> Idle，結果送給 Observer
//
// Spinning 時再次呼叫 Spin 不會有任何效果，也不排隊。
package reel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/core"
	"github.com/zintix-labs/trireel/sdk/odds"
	"github.com/zintix-labs/trireel/settings"
	"github.com/zintix-labs/trireel/spec"
)

// fxSeedSalt 用來從 seed 派生佔位符號用的第二個亂數核心。
const fxSeedSalt int64 = 0x5DEECE66D

// Observer 接收完成的結果（紀錄、統計、metrics）。
type Observer interface {
	OnSpin(theme string, r Result)
	OnReject(theme string)
}

// Observers 把多個 Observer 串在一起。
type Observers []Observer

func (obs Observers) OnSpin(theme string, r Result) {
	for _, o := range obs {
		o.OnSpin(theme, r)
	}
}

func (obs Observers) OnReject(theme string) {
	for _, o := range obs {
		o.OnReject(theme)
	}
}

// Options 是建立 Session 的可選參數。
//
// Fields:
//   - Seed: 亂數種子；同一個 seed 與同一組操作會得到同樣的結果
//   - Store: 設定儲存，nil 時使用 MemStore
//   - Observer: 結果接收者，可為 nil
//   - Log: 日誌，nil 時使用 slog.Default()
//   - Factory: PRNG 工廠，nil 時使用 core.Default()
type Options struct {
	Seed     int64
	Store    settings.Store
	Observer Observer
	Log      *slog.Logger
	Factory  core.PRNGFactory
}

// Session 是單一玩家的遊戲狀態機。
type Session struct {
	mu sync.Mutex

	theme *spec.ThemeSetting
	model *odds.Model
	core  *core.Core
	fx    *core.Core

	state      State
	guaranteed bool
	sound      bool
	seq        uint64
	inflight   *Result

	store settings.Store
	obs   Observer
	base  *slog.Logger
	log   *slog.Logger
	seed  int64
}

// NewSession 建立 Session，並從 Store 載入設定。
// 載入失敗或內容不合法時使用預設值，只記錄不回傳錯誤。
func NewSession(theme *spec.ThemeSetting, opt Options) (*Session, error) {
	if theme == nil || theme.Catalog == nil {
		return nil, errs.NewFatal("theme setting is not initialized")
	}
	pf := opt.Factory
	if pf == nil {
		pf = core.Default()
	}
	s := &Session{
		theme: theme,
		core:  core.New(pf.New(opt.Seed)),
		fx:    core.New(pf.New(opt.Seed ^ fxSeedSalt)),
		store: opt.Store,
		obs:   opt.Observer,
		base:  opt.Log,
		seed:  opt.Seed,
	}
	if s.store == nil {
		s.store = settings.NewMemStore(nil)
	}
	if s.base == nil {
		s.base = slog.Default()
	}
	s.log = s.base.With("theme", theme.ThemeName)

	cfg := s.loadSettings()
	model, err := odds.NewModel(theme.Catalog, cfg.OddsMultiplier)
	if err != nil && cfg.OddsMultiplier != odds.DefaultMultiplier {
		s.log.Warn("stored multiplier rejected by theme, fallback to default", "multiplier", cfg.OddsMultiplier, "err", err)
		model, err = odds.NewModel(theme.Catalog, odds.DefaultMultiplier)
	}
	if err != nil {
		return nil, errs.Wrap(err, "build odds model")
	}
	s.model = model
	s.guaranteed = cfg.GuaranteedWin
	s.sound = cfg.SoundEnabled
	return s, nil
}

func (s *Session) loadSettings() settings.Settings {
	cfg, err := s.store.Load()
	if err != nil {
		lv := slog.LevelWarn
		if errs.LevelOf(err) == errs.Log {
			lv = slog.LevelDebug
		}
		s.log.Log(context.Background(), lv, "settings load fallback", "err", err)
		if cfg == (settings.Settings{}) {
			return settings.Default()
		}
	}
	// Store 實作未必會修正不合法的值
	if cfg, err = cfg.Repair(); err != nil {
		s.log.Warn("settings repaired", "err", err)
	}
	return cfg
}

// persistLocked 寫入目前設定；失敗只記錄。呼叫端需持有鎖。
func (s *Session) persistLocked() {
	cfg := settings.Settings{
		OddsMultiplier: s.model.Multiplier(),
		GuaranteedWin:  s.guaranteed,
		SoundEnabled:   s.sound,
	}
	if err := s.store.Save(cfg); err != nil {
		s.log.Warn("settings save failed", "err", err)
	}
}

// Spin 開始一局。
//
// Spinning 時回傳 nil, false，狀態、旗標與亂數序列都不變。
// 否則進入 Spinning，抽出結果並回傳時間軸；狀態維持 Spinning 直到 Finish。
func (s *Session) Spin() (*Plan, bool) {
	s.mu.Lock()
	name, log := s.theme.ThemeName, s.log
	res, ok := s.spinLocked()
	if !ok {
		s.mu.Unlock()
		if s.obs != nil {
			s.obs.OnReject(name)
		}
		return nil, false
	}
	pb := planBuilder{ss: s.theme.Catalog, timing: s.theme.Timing, fx: s.fx, sound: s.sound}
	plan := pb.build(res)
	s.mu.Unlock()
	log.Debug("spin started", "seq", res.Seq, "outcome", res.Outcome.Kind, "guaranteed", res.Guaranteed)
	return plan, true
}

func (s *Session) spinLocked() (Result, bool) {
	if s.state == Spinning {
		return Result{}, false
	}
	s.state = Spinning
	s.seq++

	var reels [Reels]spec.SymbolID
	guaranteed := s.guaranteed
	if guaranteed {
		s.guaranteed = false
		s.persistLocked()
		ids := s.theme.Catalog.IDs()
		win := ids[s.core.IntN(len(ids))]
		for p := range reels {
			reels[p] = win
		}
	} else {
		// 一局只讀一次表，倍率變更不會出現在抽樣中途
		t := s.model.Table()
		for p := range reels {
			reels[p] = odds.WeightedDraw(s.core, t)
		}
	}

	res := Result{
		Seq:        s.seq,
		Reels:      reels,
		Outcome:    Classify(reels, s.theme.Catalog),
		Guaranteed: guaranteed,
		Multiplier: s.model.Multiplier(),
	}
	s.inflight = &res
	return res, true
}

// Finish 結束序號為 seq 的一局：Spinning -> Idle，並把結果交給 Observer。
// 序號不符或目前不在 Spinning 時回傳 false。
func (s *Session) Finish(seq uint64) bool {
	s.mu.Lock()
	if s.state != Spinning || s.inflight == nil || s.inflight.Seq != seq {
		s.mu.Unlock()
		return false
	}
	res := *s.inflight
	s.inflight = nil
	s.state = Idle
	name, log := s.theme.ThemeName, s.log
	s.mu.Unlock()

	log.Debug("spin finished", "seq", seq)
	if s.obs != nil {
		s.obs.OnSpin(name, res)
	}
	return true
}

// Resolve 不產生時間軸，直接完成一局（模擬器使用）。
func (s *Session) Resolve() (Result, bool) {
	s.mu.Lock()
	name := s.theme.ThemeName
	res, ok := s.spinLocked()
	s.mu.Unlock()
	if !ok {
		if s.obs != nil {
			s.obs.OnReject(name)
		}
		return Result{}, false
	}
	s.Finish(res.Seq)
	return res, true
}

// SetOddsMultiplier 更新倍率並整張替換權重表。
// 倍率不在 (0, odds.MaxMultiplier] 或有效權重溢位時回傳 Warn 錯誤，原表保持生效。
func (s *Session) SetOddsMultiplier(m float64) (*odds.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.model.SetOddsMultiplier(m)
	if err != nil {
		return nil, err
	}
	s.persistLocked()
	s.log.Debug("odds multiplier updated", "multiplier", m, "total", t.Total())
	return t, nil
}

// ToggleGuaranteedWin 切換必中旗標並回傳新值。
func (s *Session) ToggleGuaranteedWin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guaranteed = !s.guaranteed
	s.persistLocked()
	s.log.Debug("guaranteed win toggled", "on", s.guaranteed)
	return s.guaranteed
}

// SetGuaranteedWin 設定必中旗標。
func (s *Session) SetGuaranteedWin(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guaranteed = on
	s.persistLocked()
}

// ToggleSound 切換音效並回傳新值。
func (s *Session) ToggleSound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sound = !s.sound
	s.persistLocked()
	return s.sound
}

// SetSound 設定音效開關。
func (s *Session) SetSound(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sound = on
	s.persistLocked()
}

// SoundEnabled 回傳音效開關。
func (s *Session) SoundEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sound
}

// State 回傳目前旋轉狀態。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Theme 回傳目前主題。
func (s *Session) Theme() *spec.ThemeSetting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Seed 回傳建立時的亂數種子。
func (s *Session) Seed() int64 { return s.seed }

// Snapshot 是設定畫面需要的資訊。
type Snapshot struct {
	Theme         string  `json:"theme"`
	State         State   `json:"state"`
	OddsMult      float64 `json:"odds_multiplier"`
	GuaranteedWin bool    `json:"guaranteed_win"`
	SoundEnabled  bool    `json:"sound_enabled"`
	Spins         uint64  `json:"spins"`
}

// Snapshot 回傳目前設定與狀態。
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Theme:         s.theme.ThemeName,
		State:         s.state,
		OddsMult:      s.model.Multiplier(),
		GuaranteedWin: s.guaranteed,
		SoundEnabled:  s.sound,
		Spins:         s.seq,
	}
}

// PayLine 是賠付表中的一列。
type PayLine struct {
	Symbol      spec.SymbolID `json:"symbol"`
	Color       string        `json:"color,omitempty"`
	Payout      float64       `json:"payout"`
	BaseWeight  float64       `json:"base_weight"`
	Weight      float64       `json:"weight"`
	Probability float64       `json:"probability"`
}

// Paytable 依目錄順序回傳每個符號的賠付與目前有效權重。
func (s *Session) Paytable() []PayLine {
	s.mu.Lock()
	ss := s.theme.Catalog
	t := s.model.Table()
	s.mu.Unlock()

	out := make([]PayLine, 0, ss.Len())
	for i := 0; i < ss.Len(); i++ {
		d := ss.At(i)
		w, _ := t.Weight(d.ID)
		out = append(out, PayLine{
			Symbol:      d.ID,
			Color:       d.Color,
			Payout:      d.Payout,
			BaseWeight:  d.Weight,
			Weight:      w,
			Probability: t.Probability(d.ID),
		})
	}
	return out
}

// Table 回傳目前生效的權重表。
func (s *Session) Table() *odds.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Table()
}

// SetTheme 切換主題，沿用目前倍率；只允許在 Idle 時切換。
func (s *Session) SetTheme(theme *spec.ThemeSetting) error {
	if theme == nil || theme.Catalog == nil {
		return errs.NewWarn("theme setting is not initialized")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return errs.NewWarn("can not change theme while spinning")
	}
	model, err := odds.NewModel(theme.Catalog, s.model.Multiplier())
	if err != nil {
		return errs.Wrap(err, "build odds model")
	}
	s.theme = theme
	s.model = model
	s.log = s.base.With("theme", theme.ThemeName)
	s.log.Info("theme changed")
	return nil
}

// SnapshotCore 回傳主亂數核心的狀態，可用來重現之後的每一局。
func (s *Session) SnapshotCore() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Snapshot()
}

// RestoreCore 還原主亂數核心；只允許在 Idle 時還原。
func (s *Session) RestoreCore(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return errs.NewWarn("can not restore core while spinning")
	}
	if err := s.core.Restore(b); err != nil {
		return errs.NewWarn("restore core failed: " + err.Error())
	}
	return nil
}
