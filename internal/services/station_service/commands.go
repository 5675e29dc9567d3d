package station_service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// stationCommand - одна команда из закрытой таблицы удаленного вызова.
type stationCommand struct {
	arity int
	run   func(s *Station, p params) (interface{}, error)
}

// newCommandTable собирает таблицу команд, доступных через TS_COMMAND.
func newCommandTable() map[string]stationCommand {
	return map[string]stationCommand{
		"moveX": {1, func(s *Station, p params) (interface{}, error) { return nil, s.MoveX(p.num(0)) }},
		"moveY": {1, func(s *Station, p params) (interface{}, error) { return nil, s.MoveY(p.num(0)) }},
		"moveZ": {1, func(s *Station, p params) (interface{}, error) { return nil, s.MoveZ(p.num(0)) }},
		"moveXY": {2, func(s *Station, p params) (interface{}, error) {
			return nil, s.MoveXY(p.num(0), p.num(1))
		}},
		"move_relX": {1, func(s *Station, p params) (interface{}, error) { return nil, s.MoveRelX(p.num(0)) }},
		"move_relY": {1, func(s *Station, p params) (interface{}, error) { return nil, s.MoveRelY(p.num(0)) }},
		"move_abs": {2, func(s *Station, p params) (interface{}, error) {
			return nil, s.MoveAbs(p.num(0), p.num(1))
		}},
		"posX":          {0, func(s *Station, _ params) (interface{}, error) { return s.PosX() }},
		"posY":          {0, func(s *Station, _ params) (interface{}, error) { return s.PosY() }},
		"posZ":          {0, func(s *Station, _ params) (interface{}, error) { return s.PosZ() }},
		"position":      {0, func(s *Station, _ params) (interface{}, error) { return s.Position() }},
		"home":          {0, func(s *Station, _ params) (interface{}, error) { return nil, s.Home() }},
		"prepare_stage": {0, func(s *Station, _ params) (interface{}, error) { return nil, s.PrepareStage() }},
		"ts_autoFocus":  {0, func(s *Station, _ params) (interface{}, error) { return s.HardwareAutoFocus() }},
		"autoFocus": {1, func(s *Station, p params) (interface{}, error) {
			return s.AutoFocus(p.integer(0))
		}},
		"vacuum_on":  {0, func(s *Station, _ params) (interface{}, error) { return nil, s.VacuumOn() }},
		"vacuum_off": {0, func(s *Station, _ params) (interface{}, error) { return nil, s.VacuumOff() }},
		"set_led":    {1, func(s *Station, p params) (interface{}, error) { return nil, s.SetLED(p.num(0)) }},
		"send_command": {1, func(s *Station, p params) (interface{}, error) {
			return s.SendCommand(p.text(0))
		}},
	}
}

// Commands возвращает отсортированный список имен из таблицы.
func (s *Station) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute выполняет именованную команду с параметрами из JSON массива.
func (s *Station) Execute(name string, raw []interface{}) (interface{}, error) {
	cmd, ok := s.commands[name]
	if !ok {
		return nil, appErrors.NewAppError(appErrors.BadRequestCode, "неизвестная команда "+name, appErrors.ErrUnknownCommand, false)
	}
	p, err := newParams(raw, cmd.arity, name != "send_command")
	if err != nil {
		return nil, appErrors.Validation("неверные параметры команды "+name, err)
	}
	return cmd.run(s, p)
}

// ParseParameters принимает параметры в виде массива или строки с JSON массивом.
func ParseParameters(v interface{}) ([]interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return t, nil
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, nil
		}
		var out []interface{}
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil, fmt.Errorf("parameters must be a JSON array: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parameters must be a JSON array, got %T", v)
	}
}

// params - проверенные параметры команды.
type params struct {
	values []interface{}
	floats []float64
}

func newParams(raw []interface{}, arity int, numeric bool) (params, error) {
	if len(raw) != arity {
		return params{}, fmt.Errorf("expected %d parameters, got %d", arity, len(raw))
	}
	p := params{values: raw, floats: make([]float64, len(raw))}
	for i, v := range raw {
		f, err := toFloat(v)
		if err != nil && numeric {
			return params{}, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		p.floats[i] = f
	}
	return p, nil
}

func (p params) num(i int) float64 { return p.floats[i] }

func (p params) integer(i int) int { return int(p.floats[i]) }

func (p params) text(i int) string {
	if s, ok := p.values[i].(string); ok {
		return s
	}
	return fmt.Sprint(p.values[i])
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
