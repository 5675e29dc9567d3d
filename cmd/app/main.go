// @title Transfer Station API
// @version 1.0.0
// @description API станции переноса: перемещение столика, команды контроллера и сценарии сканирования пластин.
// @host localhost:8082
// @BasePath /api/v1
package main

import "github.com/iwtcode/transferStation/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
