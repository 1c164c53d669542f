package api

import (
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lysyi3m/newsdesk/app/database"
)

var registerValidators sync.Once

// setupValidators registers the objectid binding tag on gin's validator.
func setupValidators() {
	registerValidators.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			slog.Warn("Unexpected binding validator engine, objectid tag unavailable")
			return
		}
		if err := engine.RegisterValidation("objectid", validateObjectID); err != nil {
			slog.Error("Failed to register objectid validator", "error", err)
		}
	})
}

func validateObjectID(fl validator.FieldLevel) bool {
	return database.ValidID(fl.Field().String())
}
