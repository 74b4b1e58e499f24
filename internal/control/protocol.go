// Package control turns the viewer's WebSocket input into scene contacts.
package control

// Pointer kinds sent by the client.
const (
	PointerMouse = "mouse"
	PointerTouch = "touch"
)

// Message is a control websocket payload from the client.
type Message struct {
	T       string  `json:"t"`
	ID      int     `json:"id,omitempty"`
	Pointer string  `json:"pointer,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	TS      int64   `json:"ts,omitempty"`
	Shift   *bool   `json:"shift,omitempty"`
	W       int     `json:"w,omitempty"`
	H       int     `json:"h,omitempty"`
	DPR     float64 `json:"dpr,omitempty"`
	Key     string  `json:"key,omitempty"`
	Down    *bool   `json:"down,omitempty"`
	Video   string  `json:"video,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// ValueMessage echoes a controller change to the client.
type ValueMessage struct {
	T          string `json:"t"`
	Controller int    `json:"controller"`
	Value      uint8  `json:"value"`
}

func valueMessage(controller int, value uint8) ValueMessage {
	return ValueMessage{T: "value", Controller: controller, Value: value}
}
