package models

// Значения по умолчанию для запроса сканирования.
const (
	DefaultMagnification   = 20
	DefaultPicsUntilFocus  = 300
	DefaultInitialWaitTime = 8.0
	DefaultFocusWaitTime   = 8.0
)

// Wafer - прямоугольная область сканирования (углы в координатах столика).
type Wafer struct {
	BottomX *float64 `json:"bottom_x" yaml:"bottom_x"`
	BottomY *float64 `json:"bottom_y" yaml:"bottom_y"`
	TopX    *float64 `json:"top_x" yaml:"top_x"`
	TopY    *float64 `json:"top_y" yaml:"top_y"`
}

// Complete сообщает, заданы ли все четыре координаты.
func (w Wafer) Complete() bool {
	return w.BottomX != nil && w.BottomY != nil && w.TopX != nil && w.TopY != nil
}

// ScanRequest - декларативный запрос на растровое сканирование (TRACE_OVER).
// Плоские поля bottom_x..top_y трактуются как одна область.
type ScanRequest struct {
	Wafers          []Wafer  `json:"wafers,omitempty" yaml:"wafers"`
	BottomX         *float64 `json:"bottom_x,omitempty" yaml:"bottom_x"`
	BottomY         *float64 `json:"bottom_y,omitempty" yaml:"bottom_y"`
	TopX            *float64 `json:"top_x,omitempty" yaml:"top_x"`
	TopY            *float64 `json:"top_y,omitempty" yaml:"top_y"`
	Magnification   int      `json:"magnification,omitempty" yaml:"magnification"`
	PicsUntilFocus  *int     `json:"pics_until_focus,omitempty" yaml:"pics_until_focus"`
	InitialWaitTime *float64 `json:"initial_wait_time,omitempty" yaml:"initial_wait_time"`
	FocusWaitTime   *float64 `json:"focus_wait_time,omitempty" yaml:"focus_wait_time"`
	CameraIndex     int      `json:"camera_index" yaml:"camera_index"`
	SaveImages      bool     `json:"save_images" yaml:"save_images"`
	InitialFocus    *bool    `json:"initial_focus,omitempty" yaml:"initial_focus"`
}

// Regions возвращает список областей: явный wafers или одна плоская область.
func (r ScanRequest) Regions() []Wafer {
	if len(r.Wafers) > 0 {
		return r.Wafers
	}
	if r.BottomX == nil && r.BottomY == nil && r.TopX == nil && r.TopY == nil {
		return nil
	}
	return []Wafer{{BottomX: r.BottomX, BottomY: r.BottomY, TopX: r.TopX, TopY: r.TopY}}
}

func (r ScanRequest) MagnificationOrDefault() int {
	if r.Magnification == 0 {
		return DefaultMagnification
	}
	return r.Magnification
}

// FocusInterval возвращает K; значение <= 0 отключает автофокус по ходу сканирования.
func (r ScanRequest) FocusInterval() int {
	if r.PicsUntilFocus == nil {
		return DefaultPicsUntilFocus
	}
	return *r.PicsUntilFocus
}

// InitialFocusEnabled - начальный автофокус включен по умолчанию.
func (r ScanRequest) InitialFocusEnabled() bool {
	return r.InitialFocus == nil || *r.InitialFocus
}

func (r ScanRequest) InitialWait() float64 {
	if r.InitialWaitTime == nil {
		return DefaultInitialWaitTime
	}
	return *r.InitialWaitTime
}

func (r ScanRequest) FocusWait() float64 {
	if r.FocusWaitTime == nil {
		return DefaultFocusWaitTime
	}
	return *r.FocusWaitTime
}
