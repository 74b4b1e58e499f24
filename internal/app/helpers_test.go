package app

import (
	"github.com/frudas24/touchsliders/internal/manip"
	"github.com/frudas24/touchsliders/internal/scene"
)

func sceneEvent(kind manip.Kind, x, y float32, ts int64) scene.Event {
	return scene.Event{ID: scene.MouseID, Kind: kind, X: x, Y: y, Time: ts}
}
