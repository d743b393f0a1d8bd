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

package reel

import (
	"fmt"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/spec"
)

// Reels 是轉輪數量。
const Reels = 3

// State 是 Session 的旋轉狀態。
type State uint8

const (
	Idle State = iota
	Spinning
)

func (s State) String() string {
	if s == Spinning {
		return "spinning"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// OutcomeKind 是一局的分類。
type OutcomeKind uint8

const (
	NoMatch OutcomeKind = iota
	PartialMatch
	FullMatch
)

func (k OutcomeKind) String() string {
	switch k {
	case FullMatch:
		return "full_match"
	case PartialMatch:
		return "partial_match"
	default:
		return "no_match"
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *OutcomeKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "full_match":
		*k = FullMatch
	case "partial_match":
		*k = PartialMatch
	case "no_match":
		*k = NoMatch
	default:
		return errs.Warnf("unknown outcome kind %q", b)
	}
	return nil
}

// Outcome 是分類結果；Symbol 與 Payout 只在 FullMatch 時有值。
type Outcome struct {
	Kind   OutcomeKind   `json:"kind"`
	Symbol spec.SymbolID `json:"symbol,omitempty"`
	Payout float64       `json:"payout,omitempty"`
}

// Status 回傳給玩家看的結果文字。
func (o Outcome) Status() string {
	switch o.Kind {
	case FullMatch:
		return fmt.Sprintf("YOU WIN! %s %s %s - %gx!", o.Symbol, o.Symbol, o.Symbol, o.Payout)
	case PartialMatch:
		return "Two matching! Close!"
	default:
		return "No match. Try again!"
	}
}

// Result 是單局結果，在三個轉輪抽完時一次算好。
type Result struct {
	Seq        uint64               `json:"seq"`
	Reels      [Reels]spec.SymbolID `json:"reels"`
	Outcome    Outcome              `json:"outcome"`
	Guaranteed bool                 `json:"guaranteed"`
	Multiplier float64              `json:"multiplier"`
}

// Classify 依三個轉輪的符號分類結果。
//
//   - 三個相同：FullMatch，賠付取自目錄
//   - 恰好一對相同：PartialMatch
//   - 其餘：NoMatch
//
// 符號不在目錄內代表抽樣或設定被破壞，直接 panic（Fatal）。
func Classify(reels [Reels]spec.SymbolID, ss *spec.SymbolSetting) Outcome {
	for _, id := range reels {
		if _, ok := ss.Index(id); !ok {
			panic(errs.Fatalf("symbol %q not in catalog", id))
		}
	}
	a, b, c := reels[0], reels[1], reels[2]
	switch {
	case a == b && b == c:
		d, _ := ss.Def(a)
		return Outcome{Kind: FullMatch, Symbol: a, Payout: d.Payout}
	case a == b || b == c || a == c:
		return Outcome{Kind: PartialMatch}
	default:
		return Outcome{Kind: NoMatch}
	}
}
