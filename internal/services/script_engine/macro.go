package script_engine

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultSaveParams - аргументы SaveNext_Images по умолчанию.
const DefaultSaveParams = `"C:/src/FlinderOutput/Wafer_00/Raw_pictures", 4, "pic", 0`

// Macro переводит сценарий в команды макроязыка микроскопа, по одной на строку.
// Шаг new_wafer не имеет аналога и пропускается.
func Macro(script *Script, saveParams string) []string {
	if saveParams == "" {
		saveParams = DefaultSaveParams
	}
	lines := make([]string, 0, len(script.Steps)+script.Count(OpMoveXY))
	for _, s := range script.Steps {
		switch s.Op {
		case OpMoveXY:
			lines = append(lines,
				fmt.Sprintf("StgMoveX(%s);", macroNumber(s.X)),
				fmt.Sprintf("StgMoveY(%s);", macroNumber(s.Y)))
		case OpWait:
			lines = append(lines, fmt.Sprintf("Wait(%s);", macroNumber(s.Seconds)))
		case OpAutoFocus:
			lines = append(lines, "StgFocus();")
		case OpSnapshot, OpCapture:
			lines = append(lines, fmt.Sprintf("SaveNext_Images(%s);", saveParams))
		}
	}
	return lines
}

// WriteMacro пишет макрос в w. Возвращает число команд.
func WriteMacro(w io.Writer, script *Script, saveParams string) (int, error) {
	lines := Macro(script, saveParams)
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func macroNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
