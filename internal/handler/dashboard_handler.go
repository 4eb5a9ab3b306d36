package handler

import (
	"fmt"
	"net/http"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/model"
	"disaster-response-go/internal/service"
	"disaster-response-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 结构体定义了看板页面与分类接口的处理器。
type DashboardHandler struct {
	runtime         *service.Runtime
	classifyService service.ClassifyService
}

// NewDashboardHandler 创建一个新的 DashboardHandler 实例。
func NewDashboardHandler(runtime *service.Runtime, classifyService service.ClassifyService) *DashboardHandler {
	return &DashboardHandler{
		runtime:         runtime,
		classifyService: classifyService,
	}
}

// plotlyGraph 是前端 Plotly.newPlot 需要的图形描述。
type plotlyGraph struct {
	Data   []plotlyBar    `json:"data"`
	Layout map[string]any `json:"layout"`
}

type plotlyBar struct {
	Type string   `json:"type"`
	X    []string `json:"x"`
	Y    []int    `json:"y"`
}

func toGraph(s model.Series) plotlyGraph {
	return plotlyGraph{
		Data: []plotlyBar{{Type: "bar", X: s.X, Y: s.Y}},
		Layout: map[string]any{
			"title": s.Title,
			"yaxis": map[string]any{"title": s.YTitle},
			"xaxis": map[string]any{"title": s.XTitle},
		},
	}
}

func genreOptions() []string {
	opts := make([]string, len(model.Genres))
	for i, g := range model.Genres {
		opts[i] = string(g)
	}
	return opts
}

// Index 渲染首页：两个聚合柱状图与查询表单。
func (h *DashboardHandler) Index(c *gin.Context) {
	ov := h.runtime.Overview()
	graphs := []plotlyGraph{toGraph(ov.GenreCounts), toGraph(ov.CategoryCounts)}
	ids := make([]string, len(graphs))
	for i := range graphs {
		ids[i] = fmt.Sprintf("graph-%d", i)
	}

	c.HTML(http.StatusOK, "master.html", gin.H{
		"ids":    ids,
		"graphs": graphs,
		"total":  h.runtime.MessageCount(),
		"genres": genreOptions(),
		"query":  "",
		"genre":  string(model.GenreDirect),
	})
}

// Go 渲染查询结果页。
func (h *DashboardHandler) Go(c *gin.Context) {
	query := c.Query("query")
	genre := c.Query("genre")
	log.Infof("[DashboardHandler] 收到分类请求, query: '%s', genre: '%s'", query, genre)

	result, err := h.classifyService.Classify(c.Request.Context(), query, genre)
	if err != nil {
		log.Errorf("[DashboardHandler] 分类失败, error: %v", err)
		c.String(apperr.HTTPStatus(err), "classification failed")
		return
	}

	c.HTML(http.StatusOK, "go.html", gin.H{
		"query":   query,
		"genre":   genre,
		"genres":  genreOptions(),
		"results": result.Results,
	})
}

// Overview 以 JSON 返回首页的聚合数据。
func (h *DashboardHandler) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": h.runtime.Overview(), "message": "success"})
}

// Classify 以 JSON 返回查询结果。
func (h *DashboardHandler) Classify(c *gin.Context) {
	query := c.Query("query")
	genre := c.Query("genre")

	result, err := h.classifyService.Classify(c.Request.Context(), query, genre)
	if err != nil {
		log.Errorf("[DashboardHandler] 分类失败, error: %v", err)
		status := apperr.HTTPStatus(err)
		c.JSON(status, gin.H{"code": status, "message": "分类失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": result, "message": "success"})
}

// RegisterRoutes 注册看板页面与 JSON 接口。
func RegisterRoutes(r *gin.Engine, h *DashboardHandler) {
	r.GET("/", h.Index)
	r.GET("/index", h.Index)
	r.GET("/go", h.Go)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/overview", h.Overview)
		apiV1.GET("/classify", h.Classify)
	}
}
