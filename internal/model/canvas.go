package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
)

// DefaultLayerID 기본 레이어 ID
const DefaultLayerID = "default"

// Layer 캔버스 레이어
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
}

// DefaultLayer 새 보드에 시드되는 기본 레이어
func DefaultLayer() Layer {
	return Layer{ID: DefaultLayerID, Name: "Layer 1", Visible: true, Locked: false}
}

// Stroke 자유곡선 획 (포인트는 스트리밍으로 누적)
type Stroke struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Tool      string            `json:"tool"`
	Color     string            `json:"color"`
	Size      float64           `json:"size"`
	LayerID   string            `json:"layer_id"`
	Points    []json.RawMessage `json:"points"` // {x,y,...} 원본 그대로 보관
	Completed bool              `json:"completed"`
}

// Clone 포인트 배열까지 복사
func (s Stroke) Clone() Stroke {
	points := make([]json.RawMessage, len(s.Points))
	copy(points, s.Points)
	s.Points = points
	return s
}

// Object 도형/요소
type Object struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	LayerID    string         `json:"layer_id"`
	UserID     string         `json:"user_id"`
}

// Clone 속성 맵 복사 (최상위 필드 단위)
func (o Object) Clone() Object {
	props := make(map[string]any, len(o.Properties))
	maps.Copy(props, o.Properties)
	o.Properties = props
	return o
}

// CanvasData 보드 캔버스 전체 상태 (jsonb 컬럼)
type CanvasData struct {
	Strokes []Stroke `json:"strokes"`
	Objects []Object `json:"objects"`
	Layers  []Layer  `json:"layers"`
}

// NewCanvas 빈 캔버스 (기본 레이어 포함)
func NewCanvas() CanvasData {
	return CanvasData{
		Strokes: []Stroke{},
		Objects: []Object{},
		Layers:  []Layer{DefaultLayer()},
	}
}

// Normalize nil 슬라이스를 빈 슬라이스로 치환, 레이어가 없으면 기본 레이어 시드
func (c *CanvasData) Normalize() {
	if c.Strokes == nil {
		c.Strokes = []Stroke{}
	}
	for i := range c.Strokes {
		if c.Strokes[i].Points == nil {
			c.Strokes[i].Points = []json.RawMessage{}
		}
	}
	if c.Objects == nil {
		c.Objects = []Object{}
	}
	for i := range c.Objects {
		if c.Objects[i].Properties == nil {
			c.Objects[i].Properties = map[string]any{}
		}
	}
	if len(c.Layers) == 0 {
		c.Layers = []Layer{DefaultLayer()}
	}
}

// Value driver.Valuer 구현 (jsonb 저장)
func (c CanvasData) Value() (driver.Value, error) {
	c.Normalize()
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan sql.Scanner 구현 (jsonb 조회)
func (c *CanvasData) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*c = NewCanvas()
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("canvas_data: unsupported scan type")
	}

	var canvas CanvasData
	if err := json.Unmarshal(data, &canvas); err != nil {
		return err
	}
	canvas.Normalize()
	*c = canvas
	return nil
}
