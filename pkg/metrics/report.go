// Package metrics 计算二分类的精确率、召回率与 F1，并按常见的文本报表格式输出。
package metrics

import (
	"fmt"
	"strings"
)

// ClassScore 是单个类别取值（0 或 1）的指标。
type ClassScore struct {
	Label     uint8
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report 是某个类别的二分类评估结果。
type Report struct {
	Name     string
	Classes  []ClassScore
	Accuracy float64
	Macro    ClassScore
	Weighted ClassScore
	Total    int
}

// Classification 比较真实标签与预测标签。只统计在真实或预测中出现过的取值，
// 分母为零的指标记为 0。
func Classification(name string, yTrue, yPred []uint8) Report {
	r := Report{Name: name, Total: len(yTrue)}
	var tp, fp, fn [2]int
	var present [2]bool
	correct := 0
	for i, t := range yTrue {
		p := yPred[i]
		present[t], present[p] = true, true
		if t == p {
			correct++
			tp[t]++
		} else {
			fp[p]++
			fn[t]++
		}
	}
	if r.Total > 0 {
		r.Accuracy = float64(correct) / float64(r.Total)
	}

	for label := 0; label < 2; label++ {
		if !present[label] {
			continue
		}
		c := ClassScore{
			Label:     uint8(label),
			Precision: ratio(tp[label], tp[label]+fp[label]),
			Recall:    ratio(tp[label], tp[label]+fn[label]),
			Support:   tp[label] + fn[label],
		}
		if c.Precision+c.Recall > 0 {
			c.F1 = 2 * c.Precision * c.Recall / (c.Precision + c.Recall)
		}
		r.Classes = append(r.Classes, c)
	}

	for _, c := range r.Classes {
		n := float64(len(r.Classes))
		r.Macro.Precision += c.Precision / n
		r.Macro.Recall += c.Recall / n
		r.Macro.F1 += c.F1 / n
		if r.Total > 0 {
			w := float64(c.Support) / float64(r.Total)
			r.Weighted.Precision += c.Precision * w
			r.Weighted.Recall += c.Recall * w
			r.Weighted.F1 += c.F1 * w
		}
	}
	r.Macro.Support, r.Weighted.Support = r.Total, r.Total
	return r
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// String 以表格形式输出报告。
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", r.Name)
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%14d %10.2f %10.2f %10.2f %10d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Total)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.Macro.Precision, r.Macro.Recall, r.Macro.F1, r.Macro.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.Weighted.Precision, r.Weighted.Recall, r.Weighted.F1, r.Weighted.Support)
	return b.String()
}

// SubsetAccuracy 返回所有类别都预测正确的行所占比例。
func SubsetAccuracy(yTrue, yPred [][]uint8) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	exact := 0
	for i, row := range yTrue {
		match := true
		for j, v := range row {
			if yPred[i][j] != v {
				match = false
				break
			}
		}
		if match {
			exact++
		}
	}
	return float64(exact) / float64(len(yTrue))
}
