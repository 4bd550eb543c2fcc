package calendar

import "log"

func logWarn(format string, args ...any) {
	log.Printf("[warn] calendar: "+format, args...)
}
