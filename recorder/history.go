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

package recorder

import (
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/sdk/reel"
)

// HistoryRecord 是歷史檔中的一行。
type HistoryRecord struct {
	Theme string `json:"theme"`
	reel.Result
}

// History 把每局結果以 JSON lines 寫入 zstd 串流。
//
// 寫入錯誤只保留第一個，之後的紀錄直接丟棄；Close 時回傳。
type History struct {
	mu  sync.Mutex
	zw  *zstd.Encoder
	enc *json.Encoder
	n   int
	err error
}

// NewHistory 建立歷史紀錄；呼叫端負責在 Close 後關閉 w。
func NewHistory(w io.Writer) (*History, error) {
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, errs.Wrap(err, "create zstd writer")
	}
	return &History{zw: zw, enc: json.NewEncoder(zw)}, nil
}

// Write 寫入一局結果。
func (h *History) Write(theme string, r reel.Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	if err := h.enc.Encode(HistoryRecord{Theme: theme, Result: r}); err != nil {
		h.err = errs.Wrap(err, "write history")
		return h.err
	}
	h.n++
	return nil
}

// Count 回傳已寫入的筆數。
func (h *History) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

func (h *History) OnSpin(theme string, r reel.Result) { _ = h.Write(theme, r) }

func (h *History) OnReject(string) {}

// Close 結束 zstd frame。
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.zw.Close(); err != nil && h.err == nil {
		h.err = errs.Wrap(err, "close history")
	}
	return h.err
}

// ReadHistory 依序解出歷史檔中的每一筆紀錄。fn 回傳錯誤時停止。
func ReadHistory(r io.Reader, fn func(HistoryRecord) error) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return errs.Wrap(err, "open zstd reader")
	}
	defer zr.Close()
	dec := json.NewDecoder(zr)
	for {
		var rec HistoryRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errs.Wrap(err, "decode history")
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
