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

package spec

import (
	"fmt"
	"time"

	"github.com/zintix-labs/trireel/errs"
)

const (
	DefaultReelSettleMS   = 800
	DefaultReelTickMS     = 100
	DefaultResultPauseMS  = 300
	DefaultWinHighlightMS = 1000
)

// TimingSetting 描述一次旋轉的時間軸（毫秒）。
//
// Fields:
//   - ReelSettleMS: 每個轉輪從開始轉動到停下的時間，轉輪依序停下
//   - ReelTickMS: 轉動中佔位符號的更新間隔
//   - ResultPauseMS: 最後一個轉輪停下到公布結果的間隔
//   - WinHighlightMS: 中獎高亮的持續時間
//
// 留空（0）的欄位使用預設值。
type TimingSetting struct {
	ReelSettleMS   int `yaml:"reel_settle_ms"   json:"reel_settle_ms"`
	ReelTickMS     int `yaml:"reel_tick_ms"     json:"reel_tick_ms"`
	ResultPauseMS  int `yaml:"result_pause_ms"  json:"result_pause_ms"`
	WinHighlightMS int `yaml:"win_highlight_ms" json:"win_highlight_ms"`
}

// DefaultTiming 回傳預設時間軸。
func DefaultTiming() TimingSetting {
	return TimingSetting{
		ReelSettleMS:   DefaultReelSettleMS,
		ReelTickMS:     DefaultReelTickMS,
		ResultPauseMS:  DefaultResultPauseMS,
		WinHighlightMS: DefaultWinHighlightMS,
	}
}

// Init 補上預設值並檢查不合法的設定
func (ts *TimingSetting) Init() error {
	def := DefaultTiming()
	fill := func(v *int, d int) {
		if *v == 0 {
			*v = d
		}
	}
	fill(&ts.ReelSettleMS, def.ReelSettleMS)
	fill(&ts.ReelTickMS, def.ReelTickMS)
	fill(&ts.ResultPauseMS, def.ResultPauseMS)
	fill(&ts.WinHighlightMS, def.WinHighlightMS)

	if ts.ReelSettleMS < 0 || ts.ReelTickMS < 0 || ts.ResultPauseMS < 0 || ts.WinHighlightMS < 0 {
		return errs.NewFatal(fmt.Sprintf("timing must be positive: %+v", *ts))
	}
	if ts.ReelTickMS > ts.ReelSettleMS {
		return errs.NewFatal(fmt.Sprintf("reel_tick_ms (%d) must not exceed reel_settle_ms (%d)", ts.ReelTickMS, ts.ReelSettleMS))
	}
	return nil
}

func (ts TimingSetting) Settle() time.Duration    { return ms(ts.ReelSettleMS) }
func (ts TimingSetting) Tick() time.Duration      { return ms(ts.ReelTickMS) }
func (ts TimingSetting) Pause() time.Duration     { return ms(ts.ResultPauseMS) }
func (ts TimingSetting) Highlight() time.Duration { return ms(ts.WinHighlightMS) }

// OutcomeAt 回傳公布結果相對於旋轉開始的時間。
func (ts TimingSetting) OutcomeAt(reels int) time.Duration {
	return time.Duration(reels)*ts.Settle() + ts.Pause()
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
