// Package core implements the PCG64 random number generator.
//
// The PCG algorithm is designed by Melissa O'Neill.
// Bounded generation is delegated to math/rand/v2, which is
// licensed under the BSD 3-Clause License.

package core

import (
	r2 "math/rand/v2"
)

const (
	seedGolden = 0x9e3779b97f4a7c15
	seedStream = 0xDA942042E4DD58B5
)

// PCG64 亂數產生器
//
// rnd 只是 src 的取樣外殼，不帶額外狀態，因此 src 的快照即是完整狀態。
type PCG64 struct {
	src *r2.PCG
	rnd *r2.Rand
}

// NewPCG64 以指定 seed 建立新的 PCG64 實例。
func NewPCG64(seed int64) *PCG64 {
	x := uint64(seed) ^ seedGolden
	src := r2.NewPCG(splitmix64(x), splitmix64(x^seedStream))
	return &PCG64{src: src, rnd: r2.New(src)}
}

func (r *PCG64) Uint64() uint64 {
	return r.rnd.Uint64()
}

// Float64 產出 [0,1) 的 float64（53 bits 精度）
func (r *PCG64) Float64() float64 {
	return r.rnd.Float64()
}

// UintN 產出[0,n) 的uint整數，若 max == 0 回傳 0
func (r *PCG64) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return uint(r.rnd.Uint64N(uint64(max)))
}

// IntN 產出[0,n) 的整數，若 max <= 0 回傳 -1
func (r *PCG64) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return r.rnd.IntN(max)
}

func (r *PCG64) Restore(data []byte) error {
	return r.src.UnmarshalBinary(data)
}

func (r *PCG64) Snapshot() ([]byte, error) {
	return r.src.MarshalBinary()
}

// splitmix64 將輸入值混洗成新的 64-bit 狀態，用於種子展開。
func splitmix64(x uint64) uint64 {
	x += seedGolden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
