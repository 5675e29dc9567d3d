package script_engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/iwtcode/transferStation/internal/domain/models"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// Op - операция одного шага сценария.
type Op int

const (
	OpNewWafer Op = iota
	OpMoveXY
	OpWait
	OpAutoFocus
	OpSnapshot
	OpCapture
)

func (o Op) String() string {
	switch o {
	case OpNewWafer:
		return "new_wafer"
	case OpMoveXY:
		return "move_xy"
	case OpWait:
		return "wait"
	case OpAutoFocus:
		return "autofocus"
	case OpSnapshot:
		return "snapshot"
	case OpCapture:
		return "capture"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Step - один аппаратный шаг. Значимые поля зависят от Op.
type Step struct {
	Op      Op
	X, Y    float64
	Seconds float64
	Camera  int
	Wafer   int
	Point   int // номер точки растра, начиная с 1; 0 для служебных шагов
}

// Point - точка растра в координатах столика.
type Point struct {
	X, Y float64
}

// Script - полностью построенный сценарий; во время выполнения не меняется.
type Script struct {
	Steps      []Step
	Points     []Point
	Wafers     int
	Camera     int
	SaveImages bool
}

// Empty сообщает, что в сценарии нет шагов.
func (s *Script) Empty() bool {
	return s == nil || len(s.Steps) == 0
}

// Count возвращает количество шагов с указанной операцией.
func (s *Script) Count(op Op) int {
	n := 0
	for _, st := range s.Steps {
		if st.Op == op {
			n++
		}
	}
	return n
}

// Travel - шаг растра и время успокоения для увеличения объектива.
type Travel struct {
	StepX  float64
	StepY  float64
	Settle float64 // секунды
}

// MagnificationTable - известные увеличения.
type MagnificationTable map[int]Travel

// DefaultMagnifications - калибровка объективов станции (откалиброван только 20x).
func DefaultMagnifications() MagnificationTable {
	return MagnificationTable{
		5:   {StepX: 0.72, StepY: 0.50, Settle: 1},
		10:  {StepX: 0.45, StepY: 0.33, Settle: 1},
		20:  {StepX: 0.2, StepY: 0.15, Settle: 0.75},
		40:  {StepX: 0.2, StepY: 0.15, Settle: 0.75},
		50:  {StepX: 0.2, StepY: 0.15, Settle: 0.75},
		100: {StepX: 0.2, StepY: 0.15, Settle: 0.75},
	}
}

func (t MagnificationTable) keys() string {
	keys := make([]int, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, ", ")
}

// DefaultMaxPoints - предел точек растра на один запрос.
const DefaultMaxPoints = 200000

// Compiler строит сценарий из декларативного запроса; побочных эффектов нет.
type Compiler struct {
	table     MagnificationTable
	maxPoints int
}

func NewCompiler(table MagnificationTable) *Compiler {
	if table == nil {
		table = DefaultMagnifications()
	}
	return &Compiler{table: table, maxPoints: DefaultMaxPoints}
}

// WithMaxPoints задает предел точек растра; n <= 0 оставляет значение по умолчанию.
func (c *Compiler) WithMaxPoints(n int) *Compiler {
	if n > 0 {
		c.maxPoints = n
	}
	return c
}

func compileError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return appErrors.NewAppError(appErrors.BadRequestCode, msg, appErrors.ErrScriptCompilation, false)
}

// Compile проверяет запрос и строит змейку по каждой области.
// При ошибке возвращается пустой сценарий.
func (c *Compiler) Compile(req models.ScanRequest) (*Script, error) {
	regions := req.Regions()
	if len(regions) == 0 {
		return &Script{}, compileError("Missing required parameters: bottom_x, bottom_y, top_x, top_y")
	}
	for i, w := range regions {
		if !w.Complete() {
			return &Script{}, compileError("Wafer %d: missing required parameters: bottom_x, bottom_y, top_x, top_y", i+1)
		}
		for _, v := range []float64{*w.BottomX, *w.BottomY, *w.TopX, *w.TopY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &Script{}, compileError("Wafer %d: coordinates must be finite", i+1)
			}
		}
	}

	mag := req.MagnificationOrDefault()
	travel, ok := c.table[mag]
	if !ok {
		return &Script{}, compileError("Invalid magnification: %d. Must be one of: %s", mag, c.table.keys())
	}
	if travel.StepX <= 0 || travel.StepY <= 0 {
		return &Script{}, compileError("Magnification %d has no usable step size", mag)
	}

	initialWait, focusWait := req.InitialWait(), req.FocusWait()
	if initialWait < 0 || focusWait < 0 {
		return &Script{}, compileError("Wait times must not be negative")
	}

	// Размер растра проверяется до выделения памяти под точки и шаги.
	total := 0.0
	for i, w := range regions {
		cols := rasterCount(*w.TopX-*w.BottomX, travel.StepX)
		rows := rasterCount(*w.TopY-*w.BottomY, travel.StepY)
		size := cols * rows
		if math.IsNaN(size) || math.IsInf(size, 0) {
			return &Script{}, compileError("Wafer %d: scan area is too large", i+1)
		}
		total += size
		if total > float64(c.maxPoints) {
			return &Script{}, compileError("Scan has more than %d points (wafer %d: %.0f x %.0f)", c.maxPoints, i+1, cols, rows)
		}
	}

	focusEvery := req.FocusInterval()
	capture := OpSnapshot
	if req.SaveImages {
		capture = OpCapture
	}

	script := &Script{
		Wafers:     len(regions),
		Camera:     req.CameraIndex,
		SaveImages: req.SaveImages,
	}

	// Счетчик снимков общий для всех областей запроса.
	picCounter := 1
	for wi, w := range regions {
		wafer := wi + 1
		points := SnakeRaster(*w.BottomX, *w.BottomY, *w.TopX, *w.TopY, travel.StepX, travel.StepY)

		script.Steps = append(script.Steps,
			Step{Op: OpNewWafer, Wafer: wafer, Camera: req.CameraIndex},
			Step{Op: OpMoveXY, X: *w.BottomX, Y: *w.BottomY, Wafer: wafer},
			Step{Op: OpWait, Seconds: initialWait, Wafer: wafer},
		)
		if req.InitialFocusEnabled() {
			script.Steps = append(script.Steps,
				Step{Op: OpAutoFocus, Camera: req.CameraIndex, Wafer: wafer},
				Step{Op: OpWait, Seconds: focusWait, Wafer: wafer},
			)
		}

		for _, p := range points {
			script.Points = append(script.Points, p)
			n := len(script.Points)

			script.Steps = append(script.Steps, Step{Op: OpMoveXY, X: p.X, Y: p.Y, Wafer: wafer, Point: n})
			if focusEvery > 0 && picCounter%focusEvery == 0 {
				script.Steps = append(script.Steps,
					Step{Op: OpAutoFocus, Camera: req.CameraIndex, Wafer: wafer, Point: n},
					Step{Op: OpWait, Seconds: focusWait, Wafer: wafer, Point: n},
				)
			}
			script.Steps = append(script.Steps,
				Step{Op: OpWait, Seconds: travel.Settle, Wafer: wafer, Point: n},
				Step{Op: capture, Camera: req.CameraIndex, Wafer: wafer, Point: n},
			)
			picCounter++
		}
	}

	return script, nil
}

// rasterCount - количество узлов на отрезке длины span с шагом step.
// Считается во float64, чтобы огромные области не переполняли int.
func rasterCount(span, step float64) float64 {
	return math.Ceil(math.Abs(span)/step-1e-9) + 1
}

// SnakeRaster строит змейку от нижнего левого угла: столбцы идут по +X,
// строки - к верхней границе по -Y, направление по X меняется в каждой строке.
// Для растра, который не помещается в int, возвращает nil.
func SnakeRaster(bottomX, bottomY, topX, topY, stepX, stepY float64) []Point {
	fcols := rasterCount(topX-bottomX, stepX)
	frows := rasterCount(topY-bottomY, stepY)
	if size := fcols * frows; math.IsNaN(size) || size > math.MaxInt32 {
		return nil
	}
	cols, rows := int(fcols), int(frows)

	points := make([]Point, 0, cols*rows)
	for r := 0; r < rows; r++ {
		y := bottomY - float64(r)*stepY
		for i := 0; i < cols; i++ {
			c := i
			if r%2 == 1 {
				c = cols - 1 - i
			}
			points = append(points, Point{X: bottomX + float64(c)*stepX, Y: y})
		}
	}
	return points
}
