package usecases

import "github.com/iwtcode/transferStation/internal/interfaces"

// UseCases - агрегатор всех use case интерфейсов
type UseCases struct {
	interfaces.Usecases
}

// NewUsecases - конструктор для UseCases
func NewUsecases(
	station interfaces.StationController,
	engine interfaces.ScanEngine,
	repo interfaces.ScanRunRepository,
) interfaces.Usecases {
	return NewUsecase(station, engine, repo)
}
