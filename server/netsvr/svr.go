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

// Package netsvr 是 HTTP 服務的抽象層：api 套件只面向 NetRouter 註冊路由，
// 啟停交給 app.App 管理。
package netsvr

import (
	"net/http"

	"github.com/zintix-labs/trireel/server/app"
)

// NetSvr 是可註冊路由、也可被 app.App 啟停的服務。
type NetSvr interface {
	NetRouter
	app.Component
}

// NetRouter 只有路由行為，沒有 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)
	// Handle 掛上任意 method 的 handler（/metrics）
	Handle(path string, h http.Handler)

	// Group 在 path 底下建立子路由（/v1）
	Group(path string, fn func(NetRouter))
}
