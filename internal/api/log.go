package api

import "log"

func logInfo(format string, args ...any) {
	log.Printf("[info] "+format, args...)
}

func logError(format string, args ...any) {
	log.Printf("[error] "+format, args...)
}
