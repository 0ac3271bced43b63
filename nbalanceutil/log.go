/*
Copyright © 2019 the FieldNBalance authors.
This file is part of FieldNBalance.

FieldNBalance is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FieldNBalance is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FieldNBalance.  If not, see <http://www.gnu.org/licenses/>.
*/

package nbalanceutil

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// newLogger creates a logger that writes to stderr at the given level and,
// if logFile is not empty, also to logFile. The returned function closes
// the log file.
func newLogger(level, logFile string) (*logrus.Logger, func() error, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("nbalanceutil: LogLevel: %v", err)
	}
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	log.Level = lvl
	log.Out = os.Stderr
	if logFile == "" {
		return log, func() error { return nil }, nil
	}
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("nbalanceutil: creating log file: %v", err)
	}
	log.Out = io.MultiWriter(os.Stderr, f)
	return log, f.Close, nil
}

// logMessages logs the messages sent across the returned channel at the
// Info level. The channel should be closed when no more messages will be
// sent.
func logMessages(log logrus.FieldLogger) chan string {
	c := make(chan string)
	go func() {
		for msg := range c {
			log.Info(msg)
		}
	}()
	return c
}
