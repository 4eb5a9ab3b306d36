// Package training 负责训练阶段：留出集划分、网格搜索、评估与产物保存。
package training

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Split 把 n 行随机划分为训练集与测试集，测试集大小为 ceil(testSize*n)，不分层。
// 相同的 seed 得到相同的划分。
func Split(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if n < 2 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot split %d rows with test size %v", n, testSize)
	}
	perm := rand.New(rand.NewPCG(seed, 0)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// KFold 把 n 行按顺序切成 k 个连续的折，前 n%k 个折多一行。
// 返回每个折的验证集下标。
func KFold(n, k int) [][]int {
	if k > n {
		k = n
	}
	folds := make([][]int, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		fold := make([]int, size)
		for j := range fold {
			fold[j] = start + j
		}
		folds = append(folds, fold)
		start += size
	}
	return folds
}
