package model

// Tool identifies the drawing tool that produced a stroke
type Tool string

const (
	// ToolBrush is a freehand brush stroke
	ToolBrush Tool = "brush"

	// ToolEraser is an eraser stroke
	ToolEraser Tool = "eraser"

	// ToolImage is an image placed on the canvas
	ToolImage Tool = "image"
)

// Point is a single canvas coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke represents one committed freehand line or image placement. Points
// are append-only while the stroke is actively drawn and frozen once the
// stroke completes.
type Stroke struct {
	ID     string  `json:"id,omitempty"`
	Tool   Tool    `json:"tool"`
	Points []Point `json:"points,omitempty"`
	Color  string  `json:"color,omitempty"`
	Size   float64 `json:"size,omitempty"`

	// Image placement fields, used when Tool is ToolImage. ImageURL is an
	// opaque reference, typically a data URI.
	ImageURL string  `json:"image_url,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`
}

// Copy returns a copy of the stroke with its own points slice.
func (s Stroke) Copy() Stroke {
	strokeCopy := s
	if s.Points != nil {
		strokeCopy.Points = make([]Point, len(s.Points))
		copy(strokeCopy.Points, s.Points)
	}
	return strokeCopy
}
