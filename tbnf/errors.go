package tbnf

import "errors"

// This error is sent when a handler is bound for a type tag that already has a
// binding, including the no-op binding of an ignored variant.
var DPH_ERROR = errors.New("the type tag already has a handler bound")

// This error is sent when a handler is bound for a message variant that has
// not been registered.
var UHV_ERROR = errors.New("the message variant of the handler has not been registered")

// This error is sent when no non-loopback network interface with a hardware
// address could be found to derive the client's identity from.
var NHW_ERROR = errors.New("no usable hardware address was found on this device")

// This error is sent when a discovery answer datagram does not decode into a
// well formed endpoint descriptor.
var IDD_ERROR = errors.New("the discovery answer does not contain a well formed descriptor")
