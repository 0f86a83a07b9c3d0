// Copyright 2026 Gantry Tools.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"zombiezen.com/go/log"
)

type logger struct {
	color      bool
	showLevels bool

	mu  sync.Mutex
	buf []byte
}

var logInitOnce sync.Once

func initLog(showDebug bool) {
	logInitOnce.Do(func() {
		minLevel := log.Info
		if showDebug {
			minLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min: minLevel,
			Output: &logger{
				color:      colorLogs(),
				showLevels: showLogLevels(),
			},
		})
	})
}

func (l *logger) Log(ctx context.Context, entry log.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = l.buf[:0]
	if l.showLevels {
		if l.color {
			switch {
			case entry.Level >= log.Error:
				// Red text
				l.buf = append(l.buf, "\x1b[31m"...)
			case entry.Level >= log.Warn:
				// Yellow text
				l.buf = append(l.buf, "\x1b[33m"...)
			default:
				// Cyan text
				l.buf = append(l.buf, "\x1b[36m"...)
			}
		}
		switch {
		case entry.Level >= log.Error:
			l.buf = append(l.buf, "ERROR"...)
		case entry.Level >= log.Warn:
			l.buf = append(l.buf, "WARN"...)
		case entry.Level >= log.Info:
			l.buf = append(l.buf, "INFO"...)
		default:
			l.buf = append(l.buf, "DEBUG"...)
		}
		if l.color {
			l.buf = append(l.buf, "\x1b[0m"...)
		}
		l.buf = append(l.buf, ' ')
	}
	l.buf = append(l.buf, entry.Msg...)
	l.buf = append(l.buf, '\n')
	os.Stderr.Write(l.buf)
}

func (l *logger) LogEnabled(entry log.Entry) bool {
	return true
}

func colorLogs() bool {
	b, err := strconv.ParseBool(os.Getenv("CLICOLOR"))
	if err != nil {
		return true
	}
	return b
}

func showLogLevels() bool {
	b, _ := strconv.ParseBool(os.Getenv("GANTRY_NO_PRETTY_OUTPUT"))
	return !b
}

// consoleReporter writes streamed build progress to stdout, prefixing
// each line with the subject being built.
type consoleReporter struct{}

func (consoleReporter) Start(ctx context.Context, subject string) {
	fmt.Fprintf(os.Stdout, "==> %s\n", subject)
}

func (consoleReporter) Output(ctx context.Context, line string) {
	fmt.Fprintf(os.Stdout, "    %s\n", line)
}

func (consoleReporter) Error(ctx context.Context, message string) {
	log.Errorf(ctx, "%s", message)
}

func (consoleReporter) Done(ctx context.Context, subject string) {
	fmt.Fprintf(os.Stdout, "==> %s done\n", subject)
}
