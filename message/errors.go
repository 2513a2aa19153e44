package message

import "errors"

// This error is sent when a registration would assign a tag that is already
// bound to a different variant.
var DPT_ERROR = errors.New("the type tag is already bound to a different message variant")

// This error is sent when a frame is unpacked into a variant whose tag does not
// match the tag encoded in the frame.
var TMM_ERROR = errors.New("the frame's type tag does not match the target variant")

// This error is sent when a packaged frame exceeds the maximum frame size.
var FTL_ERROR = errors.New("the packaged frame exceeds the maximum frame size")

// This error is sent when a message of an unregistered variant is packaged.
var UNR_ERROR = errors.New("the message variant has not been registered")

// This error is sent when a length-prefixed string declares a length that the
// buffer cannot hold.
var SLN_ERROR = errors.New("the encoded string length exceeds the remaining buffer")
