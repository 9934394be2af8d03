package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "restaurant-service"

var logger *zap.Logger

// InitLogger initializes the global logger. Production gets JSON
// output; everything else gets a colored development console. Every
// entry carries the service name so aggregated logs stay attributable.
func InitLogger(env string) error {
	var err error
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.InitialFields = map[string]interface{}{"service": serviceName}

	logger, err = config.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// Field helpers for the identifiers that recur across the service, so
// every log line names them the same way.

func TableField(id string) zap.Field {
	return zap.String("table_id", id)
}

func OrderField(id string) zap.Field {
	return zap.String("order_id", id)
}

func ReservationField(id string) zap.Field {
	return zap.String("reservation_id", id)
}

func BillField(id string) zap.Field {
	return zap.String("bill_id", id)
}
