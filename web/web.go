// Package web 内嵌看板的 HTML 模板。
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templates embed.FS

// Templates 解析全部内嵌模板，模板名为文件名，例如 master.html。
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templates, "templates/*.html")
}
