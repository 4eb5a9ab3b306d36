package forest

import (
	"math"
	"math/rand/v2"
	"sort"
)

const leaf int32 = -1

// Node 是决策树的一个节点。Feature 为 -1 时是叶子，Prob 为正类比例。
type Node struct {
	Feature   int32
	Threshold float64
	Left      int32
	Right     int32
	Prob      float64
}

// Tree 是一棵以数组存储的 CART 决策树，根节点下标为 0。
type Tree struct {
	Nodes []Node
}

// PredictProba 返回 s 属于正类的概率。
func (t *Tree) PredictProba(s Sample) float64 {
	i := int32(0)
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Prob
		}
		if s.Get(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeParams 是单棵树的生长约束。
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
}

// entry 记录某个样本位置在某个特征上的非零取值。
type entry struct {
	pos   int32
	value float64
}

type builder struct {
	x      []Sample
	y      []uint8
	dim    int
	params treeParams
	rng    *rand.Rand
	nodes  []Node
}

type frame struct {
	node    int32
	samples []int32
	depth   int
}

// buildTree 在 samples（允许重复，即自助采样）上生长一棵树。
func buildTree(x []Sample, y []uint8, dim int, samples []int32, params treeParams, rng *rand.Rand) Tree {
	b := &builder{x: x, y: y, dim: dim, params: params, rng: rng}
	b.nodes = append(b.nodes, Node{Feature: leaf})
	stack := []frame{{node: 0, samples: samples, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pos := b.positives(f.samples)
		b.nodes[f.node].Prob = float64(pos) / float64(len(f.samples))

		if pos == 0 || pos == len(f.samples) ||
			len(f.samples) < b.params.minSamplesSplit ||
			(b.params.maxDepth > 0 && f.depth >= b.params.maxDepth) {
			continue
		}

		feature, threshold, ok := b.bestSplit(f.samples, pos)
		if !ok {
			continue
		}

		var left, right []int32
		for _, s := range f.samples {
			if b.x[s].Get(feature) <= threshold {
				left = append(left, s)
			} else {
				right = append(right, s)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		li := int32(len(b.nodes))
		b.nodes = append(b.nodes, Node{Feature: leaf}, Node{Feature: leaf})
		n := &b.nodes[f.node]
		n.Feature, n.Threshold, n.Left, n.Right = feature, threshold, li, li+1

		stack = append(stack,
			frame{node: li, samples: left, depth: f.depth + 1},
			frame{node: li + 1, samples: right, depth: f.depth + 1},
		)
	}
	return Tree{Nodes: b.nodes}
}

func (b *builder) positives(samples []int32) int {
	n := 0
	for _, s := range samples {
		n += int(b.y[s])
	}
	return n
}

// bestSplit 在随机抽取的候选特征中寻找基尼不纯度最小的切分。
// 抽到的特征在本节点全为零时视为常量；若全部候选都是常量，
// 再从本节点的非零特征中随机补抽一个，保证存在可切分的特征时一定会尝试。
func (b *builder) bestSplit(samples []int32, pos int) (int32, float64, bool) {
	active := make(map[int32][]entry)
	for p, s := range samples {
		xs := b.x[s]
		for i, f := range xs.Indices {
			active[f] = append(active[f], entry{pos: int32(p), value: xs.Values[i]})
		}
	}
	if len(active) == 0 {
		return 0, 0, false
	}

	candidates := b.drawFeatures(active)

	bestFeature, bestThreshold, bestScore := int32(0), 0.0, math.Inf(1)
	for _, f := range candidates {
		threshold, score, ok := b.splitFeature(active[f], samples, pos)
		if ok && score < bestScore {
			bestFeature, bestThreshold, bestScore = f, threshold, score
		}
	}
	if math.IsInf(bestScore, 1) {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (b *builder) drawFeatures(active map[int32][]entry) []int32 {
	mtry := b.params.maxFeatures
	if mtry > b.dim {
		mtry = b.dim
	}
	drawn := make(map[int32]struct{}, mtry)
	var candidates []int32
	for len(drawn) < mtry {
		f := int32(b.rng.IntN(b.dim))
		if _, seen := drawn[f]; seen {
			continue
		}
		drawn[f] = struct{}{}
		if _, ok := active[f]; ok {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	keys := make([]int32, 0, len(active))
	for f := range active {
		keys = append(keys, f)
	}
	// map 遍历顺序不确定，排序后再抽取以保证同一种子结果可复现
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return []int32{keys[b.rng.IntN(len(keys))]}
}

// group 是同一取值的样本聚合。
type group struct {
	value float64
	n     int
	pos   int
}

// splitFeature 扫描特征 f 的所有取值边界，返回最优阈值及其加权基尼不纯度。
func (b *builder) splitFeature(nonzero []entry, samples []int32, totalPos int) (float64, float64, bool) {
	sort.Slice(nonzero, func(i, j int) bool { return nonzero[i].value < nonzero[j].value })

	zeros := group{value: 0, n: len(samples) - len(nonzero), pos: totalPos}
	groups := make([]group, 0, len(nonzero)+1)
	inserted := zeros.n == 0
	for _, e := range nonzero {
		zeros.pos -= int(b.y[samples[e.pos]])
	}
	for _, e := range nonzero {
		if !inserted && e.value > 0 {
			groups = append(groups, zeros)
			inserted = true
		}
		label := int(b.y[samples[e.pos]])
		if k := len(groups) - 1; k >= 0 && groups[k].value == e.value {
			groups[k].n++
			groups[k].pos += label
			continue
		}
		groups = append(groups, group{value: e.value, n: 1, pos: label})
	}
	if !inserted {
		groups = append(groups, zeros)
	}
	if len(groups) < 2 {
		return 0, 0, false
	}

	total := len(samples)
	bestScore, bestThreshold := math.Inf(1), 0.0
	leftN, leftPos := 0, 0
	for i := 0; i < len(groups)-1; i++ {
		leftN += groups[i].n
		leftPos += groups[i].pos
		lo, hi := groups[i].value, groups[i+1].value
		if lo == hi {
			continue
		}
		rightN, rightPos := total-leftN, totalPos-leftPos
		score := float64(leftN)*gini(leftPos, leftN) + float64(rightN)*gini(rightPos, rightN)
		if score < bestScore {
			bestScore = score
			bestThreshold = lo + (hi-lo)/2
			if bestThreshold >= hi {
				bestThreshold = lo
			}
		}
	}
	if math.IsInf(bestScore, 1) {
		return 0, 0, false
	}
	return bestThreshold, bestScore, true
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
