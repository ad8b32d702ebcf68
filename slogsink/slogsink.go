// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slogsink adapts rdv lifecycle events to log/slog records.
package slogsink

import (
	"context"
	"log/slog"

	"code.hybscloud.com/rdv"
)

// Sink writes one slog record per event. The event signal becomes the
// message; bridge serial, name, and sequence become attributes.
type Sink struct {
	log *slog.Logger
}

// New creates a sink writing to log. A nil log uses slog.Default.
func New(log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{log: log}
}

// Emit implements rdv.Sink.
func (s *Sink) Emit(e rdv.Event) {
	attrs := make([]slog.Attr, 0, 3+len(e.Fields))
	attrs = append(attrs, slog.Uint64("bridge", uint64(e.Bridge)))
	if e.Name != "" {
		attrs = append(attrs, slog.String("name", e.Name))
	}
	if e.Seq != 0 {
		attrs = append(attrs, slog.Uint64("seq", e.Seq))
	}
	for _, f := range e.Fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	s.log.LogAttrs(context.Background(), level(e.Level), string(e.Signal), attrs...)
}

// level maps rdv severities onto slog levels.
func level(l rdv.Level) slog.Level {
	switch l {
	case rdv.LevelDebug:
		return slog.LevelDebug
	case rdv.LevelWarn:
		return slog.LevelWarn
	case rdv.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
