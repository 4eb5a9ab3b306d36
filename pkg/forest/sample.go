// Package forest 实现了面向稀疏特征的二分类随机森林。
package forest

import "sort"

// Sample 是一个稀疏特征向量，Indices 严格递增，未出现的特征取值为 0。
type Sample struct {
	Indices []int32
	Values  []float64
}

// Get 返回第 f 个特征的取值。
func (s Sample) Get(f int32) float64 {
	i := sort.Search(len(s.Indices), func(i int) bool { return s.Indices[i] >= f })
	if i < len(s.Indices) && s.Indices[i] == f {
		return s.Values[i]
	}
	return 0
}

// Dense 把稠密向量转换为 Sample，零值被省略。
func Dense(values []float64) Sample {
	var s Sample
	for i, v := range values {
		if v != 0 {
			s.Indices = append(s.Indices, int32(i))
			s.Values = append(s.Values, v)
		}
	}
	return s
}

// Concat 按顺序拼接多个 Sample，第 k 个分量的下标偏移 offsets[k]。
func Concat(parts []Sample, offsets []int32) Sample {
	n := 0
	for _, p := range parts {
		n += len(p.Indices)
	}
	out := Sample{Indices: make([]int32, 0, n), Values: make([]float64, 0, n)}
	for k, p := range parts {
		for i, idx := range p.Indices {
			out.Indices = append(out.Indices, idx+offsets[k])
			out.Values = append(out.Values, p.Values[i])
		}
	}
	return out
}
