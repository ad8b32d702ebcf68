// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package capsink forwards rdv lifecycle events to the capitan hub,
// where applications and tests observe them with capitan.Hook.
package capsink

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"

	"code.hybscloud.com/rdv"
)

// Keys for forwarded event fields.
var (
	BridgeKey = capitan.NewIntKey("rdv.bridge.serial")
	NameKey   = capitan.NewStringKey("rdv.bridge.name")
	SeqKey    = capitan.NewIntKey("rdv.request.seq")
	LevelKey  = capitan.NewStringKey("rdv.level")
	SideKey   = capitan.NewStringKey("rdv.side")
	OpKey     = capitan.NewStringKey("rdv.op")
	ErrorKey  = capitan.NewStringKey("rdv.error")
	RunIDKey  = capitan.NewStringKey("rdv.run.id")
	DetailKey = capitan.NewStringKey("rdv.detail")
)

// Sink forwards each event to capitan under its rdv signal name.
// The zero value is ready to use.
type Sink struct{}

// New creates a capitan-forwarding sink.
func New() Sink {
	return Sink{}
}

// Emit implements rdv.Sink. Events at LevelError and above forward
// through capitan.Error, the rest through capitan.Info; the rdv level
// also travels as a field.
func (Sink) Emit(e rdv.Event) {
	fields := []capitan.Field{
		BridgeKey.Field(int(e.Bridge)),
		SeqKey.Field(int(e.Seq)),
		LevelKey.Field(e.Level.String()),
	}
	if e.Name != "" {
		fields = append(fields, NameKey.Field(e.Name))
	}
	for _, f := range e.Fields {
		switch f.Key {
		case "side":
			fields = append(fields, SideKey.Field(fmt.Sprint(f.Value)))
		case "op":
			fields = append(fields, OpKey.Field(fmt.Sprint(f.Value)))
		case "error":
			fields = append(fields, ErrorKey.Field(fmt.Sprint(f.Value)))
		case "run_id":
			fields = append(fields, RunIDKey.Field(fmt.Sprint(f.Value)))
		default:
			fields = append(fields, DetailKey.Field(fmt.Sprintf("%s=%v", f.Key, f.Value)))
		}
	}

	ctx := context.Background()
	if e.Level >= rdv.LevelError {
		capitan.Error(ctx, capitan.Signal(e.Signal), fields...)
		return
	}
	capitan.Info(ctx, capitan.Signal(e.Signal), fields...)
}
