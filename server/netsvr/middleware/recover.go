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

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/trireel/errs"
	"github.com/zintix-labs/trireel/server/httperr"
)

// Recover 攔截 handler 的 panic，記錄堆疊後回 500（與其他錯誤相同的 JSON 格式）。
// http.ErrAbortHandler 照原樣往上拋，讓 net/http 中斷連線。log 為 nil 時使用 slog.Default()。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("req_id", GetReqId(r)),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				httperr.Errs(w, errs.NewWithExtra(errs.Fatal, "internal server error", fmt.Sprint(rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
