package protoc

import "errors"

var ErrUnknownProtocol = errors.New("protocol: unknown protocol")
var ErrUnsupportedOperation = errors.New("protocol: operation not supported")
var ErrAuthenticationFailed = errors.New("protocol: authentication failed")
var ErrSessionClosed = errors.New("protocol: session is closed")
var ErrInvalidOptions = errors.New("protocol: invalid options")
var ErrInvalidEndpoint = errors.New("protocol: invalid endpoint")
