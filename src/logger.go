package main

import (
	"os"
	"time"

	"github.com/google/uuid"
)

const LOG_PATH = "./musipi.log"

var logFile *os.File
var logSession string

func init() {
	var err error
	logFile, err = os.OpenFile(LOG_PATH, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(err)
	}

	// Short per-boot id so interleaved boots in the shared log file can
	// be told apart.
	logSession = uuid.NewString()[:8]
}

func logMsg(message string) {
	logFile.WriteString(time.Now().Format("2006-01-02 15:04:05.999") + " [" + logSession + "] " + message + "\n")
}
