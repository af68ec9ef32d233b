package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// ServiceName labels every log entry so aggregated streams stay filterable
// when the API shares a sink with the migrate and smoke binaries.
const ServiceName = "dataroom-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits a structured JSON log line with common HTTP fields,
// stamped with the service name unless the caller set its own.
func LogRequest(entry map[string]any) {
	if _, ok := entry["service"]; !ok {
		entry["service"] = ServiceName
	}
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"ts":"error","level":"error","msg":"log marshal failed","service":"` + ServiceName + `"}`)
		return
	}
	Logger().Println(string(data))
}
