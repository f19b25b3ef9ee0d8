// Package rng 提供显式传递的随机数流，替代进程级全局随机状态。
package rng

import "math/rand/v2"

// baseTag 为主流的 PCG 第二种子字，派生流在其上按编号偏移。
const baseTag uint64 = 0x9e3779b97f4a7c15

// Stream 为单个调用方独占的随机数流，不可跨 goroutine 共享。
type Stream struct {
	seed  uint64
	index uint64
	r     *rand.Rand
}

// New 以固定种子创建随机数流，相同种子产生相同序列。
func New(seed uint64) *Stream {
	return newStream(seed, 0)
}

// NewRandom 使用运行时随机种子创建随机数流，输出不可复现。
func NewRandom() *Stream {
	return New(RandomSeed())
}

// RandomSeed 返回一个新的随机种子。
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Derive 按编号派生相互独立的子流，结果只取决于 (seed, index)。
func Derive(seed uint64, index int) *Stream {
	return newStream(seed, uint64(index)+1)
}

func newStream(seed, index uint64) *Stream {
	return &Stream{
		seed:  seed,
		index: index,
		r:     rand.New(rand.NewPCG(seed, baseTag^index)),
	}
}

// Seed 返回创建该流的种子。
func (s *Stream) Seed() uint64 {
	return s.seed
}

// Normal 抽取一个标准正态随机数。
func (s *Stream) Normal() float64 {
	return s.r.NormFloat64()
}

// NormalWith 抽取均值为 mean、标准差为 std 的正态随机数。
func (s *Stream) NormalWith(mean, std float64) float64 {
	return mean + std*s.r.NormFloat64()
}

// Uniform 抽取 [0,1) 区间均匀随机数。
func (s *Stream) Uniform() float64 {
	return s.r.Float64()
}
