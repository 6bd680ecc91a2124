//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/voxelsplace/bevelmesh/api"
	"github.com/voxelsplace/bevelmesh/config"
	"github.com/voxelsplace/bevelmesh/utils"
	"github.com/voxelsplace/bevelmesh/world"
)

var cfg = config.Defaults()

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	uint8arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8arr, b)
	return uint8arr
}

func world2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing snapshot bytes")
	}
	c := cfg
	if len(args) > 1 && args[1].Truthy() {
		c.Export.XRay = true
	}
	out, err := api.WorldToGLB(bytesFromJS(args[0]), c, nil)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func applyEdits(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("missing snapshot or edit bytes")
	}
	out, err := api.ApplyEdits(bytesFromJS(args[0]), bytesFromJS(args[1]), cfg)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func genWorld(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf("missing size, height or seed")
	}
	w := world.New(api.Options(cfg, nil, nil))
	if err := utils.GenerateTerrain(w, args[0].Int(), args[1].Int(), int64(args[2].Int())); err != nil {
		return js.ValueOf(err.Error())
	}
	out, err := w.MarshalSnapshot(world.CompZstd)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func main() {
	js.Global().Set("world2glb", js.FuncOf(world2glb))
	js.Global().Set("applyEdits", js.FuncOf(applyEdits))
	js.Global().Set("genWorld", js.FuncOf(genWorld))
	select {}
}
