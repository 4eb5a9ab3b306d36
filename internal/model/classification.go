package model

// CategoryLabel 是某个类别的预测结果。
type CategoryLabel struct {
	Category string `json:"category"`
	Label    uint8  `json:"label"`
}

// Classification 是一次查询的完整结果。
type Classification struct {
	Query   string          `json:"query"`
	Genre   string          `json:"genre"`
	Results []CategoryLabel `json:"results"`
}

// Series 是一个可直接绘制的柱状图序列。
type Series struct {
	Title  string   `json:"title"`
	XTitle string   `json:"x_title"`
	YTitle string   `json:"y_title"`
	X      []string `json:"x"`
	Y      []int    `json:"y"`
}

// Overview 是首页的两个聚合图。
type Overview struct {
	GenreCounts    Series `json:"genre_counts"`
	CategoryCounts Series `json:"category_counts"`
}
