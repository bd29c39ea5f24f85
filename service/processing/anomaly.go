/*
 * @module service/processing/anomaly
 * @description 可选高级分析：隔离树离群检测与二分K均值聚类，均使用固定随机种子保证可复现
 * @architecture 分层架构 - 处理服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 完整数值行提取 -> 常量列剔除 -> 离群评分/聚类划分
 * @rules 任一子步骤失败只记录日志并从结果中省略，不得中断整体剖析
 * @dependencies 无
 * @refs service/processing/insight_engine.go
 */

package processing

import (
	"errors"
	"math"
	"math/rand"
)

// analyticsSeed 高级分析固定随机种子
const analyticsSeed = 42

// minAnalyticsRows 高级分析所需的最少完整数值行数
const minAnalyticsRows = 10

const (
	forestTrees         = 100
	forestSubsampleSize = 256
	// outlierScoreCutoff 隔离评分高于该值判定为离群点
	outlierScoreCutoff = 0.5
)

var errInsufficientData = errors.New("数据量不足，跳过高级分析")

type isoNode struct {
	feature int
	split   float64
	left    *isoNode
	right   *isoNode
	size    int
}

// harmonic 调和数近似，用于平均路径长度归一化
func harmonic(n float64) float64 {
	const eulerGamma = 0.5772156649
	return math.Log(n) + eulerGamma
}

// averagePathLength 二叉搜索失败平均路径长度 c(n)
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	f := float64(n)
	return 2*harmonic(f-1) - 2*(f-1)/f
}

func buildIsoTree(data [][]float64, indices []int, depth, heightLimit int, rng *rand.Rand) *isoNode {
	if depth >= heightLimit || len(indices) <= 1 {
		return &isoNode{feature: -1, size: len(indices)}
	}

	dims := len(data[indices[0]])
	// 随机挑选一个取值非常量的维度
	order := rng.Perm(dims)
	feature := -1
	var lo, hi float64
	for _, f := range order {
		lo, hi = data[indices[0]][f], data[indices[0]][f]
		for _, i := range indices[1:] {
			v := data[i][f]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi > lo {
			feature = f
			break
		}
	}
	if feature < 0 {
		return &isoNode{feature: -1, size: len(indices)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var leftIdx, rightIdx []int
	for _, i := range indices {
		if data[i][feature] < split {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	return &isoNode{
		feature: feature,
		split:   split,
		left:    buildIsoTree(data, leftIdx, depth+1, heightLimit, rng),
		right:   buildIsoTree(data, rightIdx, depth+1, heightLimit, rng),
		size:    len(indices),
	}
}

func isoPathLength(node *isoNode, point []float64, depth float64) float64 {
	if node.feature < 0 {
		return depth + averagePathLength(node.size)
	}
	if point[node.feature] < node.split {
		return isoPathLength(node.left, point, depth+1)
	}
	return isoPathLength(node.right, point, depth+1)
}

// isolationOutlierRate 隔离树离群率：构建随机隔离树森林，
// 按归一化平均路径长度评分，返回评分超过阈值的样本占比
func isolationOutlierRate(data [][]float64) (float64, error) {
	n := len(data)
	if n < minAnalyticsRows {
		return 0, errInsufficientData
	}

	rng := rand.New(rand.NewSource(analyticsSeed))
	sampleSize := forestSubsampleSize
	if sampleSize > n {
		sampleSize = n
	}
	heightLimit := int(math.Ceil(math.Log2(float64(sampleSize))))

	trees := make([]*isoNode, 0, forestTrees)
	for t := 0; t < forestTrees; t++ {
		perm := rng.Perm(n)
		indices := perm[:sampleSize]
		trees = append(trees, buildIsoTree(data, indices, 0, heightLimit, rng))
	}

	norm := averagePathLength(sampleSize)
	outliers := 0
	for _, point := range data {
		total := 0.0
		for _, tree := range trees {
			total += isoPathLength(tree, point, 0)
		}
		avg := total / float64(len(trees))
		score := math.Pow(2, -avg/norm)
		if score > outlierScoreCutoff {
			outliers++
		}
	}
	return float64(outliers) / float64(n), nil
}

// kmeansClusterSizes 二分K均值：固定种子选取初始中心，Lloyd迭代至收敛，返回各簇样本数
func kmeansClusterSizes(data [][]float64) (map[string]int, error) {
	n := len(data)
	if n < minAnalyticsRows {
		return nil, errInsufficientData
	}
	dims := len(data[0])
	if dims < 2 {
		return nil, errInsufficientData
	}

	rng := rand.New(rand.NewSource(analyticsSeed))
	const k = 2
	const maxIterations = 100

	// 初始中心取两个不同的样本点
	centers := make([][]float64, k)
	first := rng.Intn(n)
	centers[0] = append([]float64{}, data[first]...)
	second := first
	for attempts := 0; attempts < n; attempts++ {
		candidate := rng.Intn(n)
		if !equalPoints(data[candidate], centers[0]) {
			second = candidate
			break
		}
	}
	if second == first {
		return nil, errors.New("样本无差异，无法划分聚类")
	}
	centers[1] = append([]float64{}, data[second]...)

	labels := make([]int, n)
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, point := range data {
			best := 0
			bestDist := squaredDistance(point, centers[0])
			for c := 1; c < k; c++ {
				if dist := squaredDistance(point, centers[c]); dist < bestDist {
					best = c
					bestDist = dist
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		for c := 0; c < k; c++ {
			sum := make([]float64, dims)
			count := 0
			for i, point := range data {
				if labels[i] != c {
					continue
				}
				for d := 0; d < dims; d++ {
					sum[d] += point[d]
				}
				count++
			}
			if count == 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				centers[c][d] = sum[d] / float64(count)
			}
		}
	}

	sizes := map[string]int{"0": 0, "1": 0}
	for _, label := range labels {
		if label == 0 {
			sizes["0"]++
		} else {
			sizes["1"]++
		}
	}
	return sizes, nil
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func equalPoints(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
