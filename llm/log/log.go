// Copyright 2025 ByteDance Inc.
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

// Package log is a small leveled, printf-style logger shared by every package.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var std = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableQuote:    true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

func SetLogLevel(lv Level) {
	switch lv {
	case DebugLevel:
		std.SetLevel(logrus.DebugLevel)
	case InfoLevel:
		std.SetLevel(logrus.InfoLevel)
	case WarnLevel:
		std.SetLevel(logrus.WarnLevel)
	default:
		std.SetLevel(logrus.ErrorLevel)
	}
}

// SetOutput redirects all log output, mostly useful in tests and in MCP
// stdio mode where stdout belongs to the protocol.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Debug(format string, args ...any) {
	std.Debugf(trim(format), args...)
}

func Info(format string, args ...any) {
	std.Infof(trim(format), args...)
}

func Warn(format string, args ...any) {
	std.Warnf(trim(format), args...)
}

func Error(format string, args ...any) {
	std.Errorf(trim(format), args...)
}

// callers often end formats with "\n"; logrus adds its own.
func trim(format string) string {
	return strings.TrimRight(format, "\n")
}
