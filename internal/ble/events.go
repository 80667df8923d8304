package ble

// Characteristic identifies which of the two writable characteristics
// a Written event targeted.
type Characteristic int

const (
	CharColor Characteristic = iota
	CharControl
)

// Event is a BLE host event, delivered to Service.Handle. The three
// variants below are the only implementations.
type Event interface {
	isEvent()
}

// Connected reports a central attaching. Addr is the peer's address,
// used as the opaque connection handle.
type Connected struct {
	Addr string
}

// Disconnected reports a central detaching.
type Disconnected struct {
	Addr string
}

// Written carries the payload of a GATT write.
type Written struct {
	Char Characteristic
	Data []byte
}

func (Connected) isEvent()    {}
func (Disconnected) isEvent() {}
func (Written) isEvent()      {}
