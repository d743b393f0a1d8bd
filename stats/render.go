package stats

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// StatReportRender 定義輸出行為
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

// Json渲染
type JsonStatReportRender struct {
	Indent bool
}

func (jr *JsonStatReportRender) Write(w io.Writer, r *StatReport) error {
	enc := json.NewEncoder(w)
	if jr.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

// 表格渲染（與 StdOut 相同格式）
type TextStatReportRender struct {
	Elapsed time.Duration
}

func (tr *TextStatReportRender) Write(w io.Writer, r *StatReport) error {
	r.Fprint(w, tr.Elapsed)
	return nil
}

// RenderByName 依名稱取得渲染器：json / yaml / text。
func RenderByName(name string) (StatReportRender, bool) {
	switch name {
	case "json":
		return &JsonStatReportRender{Indent: true}, true
	case "yaml", "yml":
		return &YAMLStatReportRender{}, true
	case "text", "":
		return &TextStatReportRender{}, true
	}
	return nil, false
}

// YAML渲染
type YAMLStatReportRender struct{}

func (yr *YAMLStatReportRender) Write(w io.Writer, r *StatReport) error {
	// 一維陣列（例如旋律、符號列表）以 flow style 輸出：[a, b, c]
	return forceReadableList(w, r)
}

// YAML 內層方法：純量陣列改為 flow style，其餘維持 block。
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleScalarSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleScalarSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	allScalar := true
	for _, c := range n.Content {
		styleScalarSequences(c)
		if c == nil || c.Kind != yaml.ScalarNode {
			allScalar = false
		}
	}
	if n.Kind == yaml.SequenceNode && allScalar {
		n.Style = yaml.FlowStyle
	}
}
