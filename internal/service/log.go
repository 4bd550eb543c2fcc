package service

import "log"

func logInfo(format string, args ...any) {
	log.Printf("[info] "+format, args...)
}

func logWarn(format string, args ...any) {
	log.Printf("[warn] "+format, args...)
}
